package edl

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/TelioTortay/ATEMLogger/internal/timecode"
	"github.com/TelioTortay/ATEMLogger/internal/tracker"
)

// Parse reads an EDL previously written by Generate. Files without this
// tool's title line are rejected outright; validating foreign EDLs is out of
// scope.
func Parse(data []byte) ([]tracker.Clip, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))

	if !sc.Scan() || strings.TrimSpace(sc.Text()) != TitleLine {
		return nil, fmt.Errorf("not an ATEM logger EDL: missing title line")
	}
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != fcmLine {
		return nil, fmt.Errorf("not an ATEM logger EDL: missing FCM line")
	}

	var clips []tracker.Clip
	var pending *tracker.Clip
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		if name, ok := strings.CutPrefix(line, "* FROM CLIP NAME:"); ok {
			if pending == nil {
				return nil, fmt.Errorf("clip name comment without a preceding event line")
			}
			pending.Source = strings.TrimSpace(name)
			clips = append(clips, *pending)
			pending = nil
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 8 {
			return nil, fmt.Errorf("malformed event line: %q", line)
		}
		start, err := timecode.Parse(fields[4])
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", fields[0], err)
		}
		end, err := timecode.Parse(fields[5])
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", fields[0], err)
		}
		pending = &tracker.Clip{Start: start, End: end}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading EDL: %w", err)
	}
	if pending != nil {
		return nil, fmt.Errorf("trailing event line without a clip name comment")
	}

	return clips, nil
}
