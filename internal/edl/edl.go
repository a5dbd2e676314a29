// Package edl renders a clip log to a CMX3600-flavored edit decision list
// and parses files this tool wrote for display purposes.
package edl

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/TelioTortay/ATEMLogger/internal/tracker"
)

// Header lines identifying an EDL written by this tool.
const (
	TitleLine = "TITLE: ATEM Program Output"
	fcmLine   = "FCM: NON-DROP FRAME"
)

// Generate renders clips in sequence order. Each entry gets a 1-based
// four-digit id, a reel/track/transition record line with the record and
// source timecode pairs repeated (there is no independent record-deck
// offset), and a clip-name comment. When compensation > 0 both timecodes are
// shifted by that many frames at the given rate; the clips themselves are
// never modified.
func Generate(clips []tracker.Clip, compensation, rate int) []byte {
	var sb strings.Builder
	sb.WriteString(TitleLine + "\n")
	sb.WriteString(fcmLine + "\n")

	for i, clip := range clips {
		start := clip.Start
		end := clip.End
		if compensation > 0 {
			start = start.AddFrames(compensation, rate)
			end = end.AddFrames(compensation, rate)
		}
		fmt.Fprintf(&sb, "%04d  AX    V     C   %s %s %s %s\n", i+1, start, end, start, end)
		fmt.Fprintf(&sb, "* FROM CLIP NAME: %s\n", clip.Source)
	}

	return []byte(sb.String())
}

// Write serializes clips to path. An empty clip log is "nothing to do": it
// logs a warning and writes no file. The write goes through a temp file in
// the destination directory so the rename is atomic.
func Write(path string, clips []tracker.Clip, compensation, rate int) error {
	if len(clips) == 0 {
		slog.Warn("no cuts detected, skipping EDL write", "path", path)
		return nil
	}

	data := Generate(clips, compensation, rate)

	tmp, err := os.CreateTemp(filepath.Dir(path), "edl-*.tmp")
	if err != nil {
		return fmt.Errorf("writing EDL: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing EDL: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("writing EDL: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("writing EDL: %w", err)
	}

	slog.Info("EDL file generated", "path", path, "clips", len(clips))
	return nil
}
