// Package timecode implements frame-accurate HH:MM:SS:FF timecode values
// and the carry arithmetic used for latency compensation.
package timecode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrFormat is returned by Parse when the input is not a valid timecode.
var ErrFormat = errors.New("invalid timecode format")

// DefaultRate is the nominal frame rate assumed when none is configured.
const DefaultRate = 25

// Timecode is an immutable HH:MM:SS:FF value. Frames must stay below the
// session frame rate, seconds and minutes below 60; hours are unbounded.
type Timecode struct {
	Hours   int
	Minutes int
	Seconds int
	Frames  int
}

// Parse converts "HH:MM:SS:FF" text into a Timecode. Each field must be a
// non-negative integer and there must be exactly four of them; minutes and
// seconds must be below 60. The frames field is not range-checked here
// because the frame rate is not known at parse time.
func Parse(text string) (Timecode, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 4 {
		return Timecode{}, fmt.Errorf("%w: %q", ErrFormat, text)
	}

	var fields [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Timecode{}, fmt.Errorf("%w: %q", ErrFormat, text)
		}
		fields[i] = n
	}
	if fields[1] >= 60 || fields[2] >= 60 {
		return Timecode{}, fmt.Errorf("%w: %q", ErrFormat, text)
	}

	return Timecode{
		Hours:   fields[0],
		Minutes: fields[1],
		Seconds: fields[2],
		Frames:  fields[3],
	}, nil
}

// String renders the canonical zero-padded form. Hours wider than two digits
// simply grow the field; the result always round-trips through Parse.
func (tc Timecode) String() string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d", tc.Hours, tc.Minutes, tc.Seconds, tc.Frames)
}

// AddFrames returns a new Timecode advanced by delta frames at the given
// frame rate, carrying overflow through seconds, minutes and hours. A
// non-positive rate or a negative delta returns the receiver unchanged:
// compensation must degrade to a no-op, never corrupt a value.
func (tc Timecode) AddFrames(delta, rate int) Timecode {
	if rate <= 0 || delta < 0 {
		return tc
	}

	frames := tc.Frames + delta
	seconds := tc.Seconds + frames/rate
	frames %= rate
	minutes := tc.Minutes + seconds/60
	seconds %= 60
	hours := tc.Hours + minutes/60
	minutes %= 60

	return Timecode{Hours: hours, Minutes: minutes, Seconds: seconds, Frames: frames}
}
