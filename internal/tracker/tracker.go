// Package tracker turns a stream of (input, timecode) samples into clip
// boundaries: one clip per stretch of a single program input.
package tracker

import "github.com/TelioTortay/ATEMLogger/internal/timecode"

// Clip is one finalized program segment. Values are immutable once emitted.
type Clip struct {
	Source string
	Start  timecode.Timecode
	End    timecode.Timecode
}

// Tracker is a pure state machine with no I/O. It is not safe for concurrent
// use; the monitoring session drives it from a single goroutine.
type Tracker struct {
	tracking bool
	source   string
	start    timecode.Timecode
	last     timecode.Timecode
}

// New returns an idle Tracker.
func New() *Tracker {
	return &Tracker{}
}

// Observe feeds one sample. When the input differs from the pending one it
// returns the finalized clip for the previous input and true; otherwise it
// returns false. The first sample only arms the tracker.
func (t *Tracker) Observe(source string, tc timecode.Timecode) (Clip, bool) {
	t.last = tc

	if !t.tracking {
		t.tracking = true
		t.source = source
		t.start = tc
		return Clip{}, false
	}

	if source == t.source {
		return Clip{}, false
	}

	done := Clip{Source: t.source, Start: t.start, End: tc}
	t.source = source
	t.start = tc
	return done, true
}

// Finish closes the trailing clip at session end, using the last sampled
// timecode as its end. A zero-duration clip (end == start) is valid: it means
// no newer timecode arrived after the final edge. Returns false when the
// tracker never saw a sample.
func (t *Tracker) Finish() (Clip, bool) {
	if !t.tracking {
		return Clip{}, false
	}
	done := Clip{Source: t.source, Start: t.start, End: t.last}
	t.tracking = false
	return done, true
}
