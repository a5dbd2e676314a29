// Package session runs one monitoring session: it polls the switcher's
// program bus and the deck's display timecode on a background goroutine,
// feeds the samples through the clip boundary tracker, and writes the EDL
// when stopped.
package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/TelioTortay/ATEMLogger/internal/edl"
	"github.com/TelioTortay/ATEMLogger/internal/switcher"
	"github.com/TelioTortay/ATEMLogger/internal/timecode"
	"github.com/TelioTortay/ATEMLogger/internal/tracker"
)

// Deck is the recording-deck capability the session consumes.
type Deck interface {
	// QueryTimecode returns the current display timecode, or false when the
	// deck has none to report or the sample failed.
	QueryTimecode() (timecode.Timecode, bool)
	Close() error
}

// EventKind discriminates the notifications published to the presentation
// layer.
type EventKind int

const (
	// InputChanged carries the current program input, sent every tick.
	InputChanged EventKind = iota
	// TimecodeUpdated carries the formatted display timecode.
	TimecodeUpdated
	// ClipCompleted carries a finalized clip triple.
	ClipCompleted
)

// ClipSummary is the formatted clip triple delivered with ClipCompleted.
type ClipSummary struct {
	Source string
	Start  string
	End    string
}

// Event is one fire-and-forget notification. The presentation layer only
// ever sees these immutable snapshots, never session state.
type Event struct {
	Kind     EventKind
	Input    string
	Timecode string
	Clip     ClipSummary
}

// Options configures a session. Feed and Deck must be connected before the
// session is built; Connect does both from a config.
type Options struct {
	Feed       switcher.Feed
	Deck       Deck
	OutputPath string
	FrameRate  int
	Backoff    time.Duration
	// Compensation is read once, at serialization time, so a live config
	// change made mid-show still applies to the final EDL.
	Compensation func() int
}

const defaultBackoff = 10 * time.Millisecond

// Session owns the poll loop. The clip log is mutated only by the loop
// goroutine; other goroutines read it through Clips after the loop exits.
type Session struct {
	id   string
	opts Options

	events chan Event
	stop   chan struct{}
	done   chan struct{}

	clips    []tracker.Clip
	writeErr error
}

// New builds a session over already-connected devices.
func New(opts Options) (*Session, error) {
	if opts.Feed == nil {
		return nil, fmt.Errorf("session: switcher feed is required")
	}
	if opts.Deck == nil {
		return nil, fmt.Errorf("session: deck client is required")
	}
	if opts.FrameRate <= 0 {
		opts.FrameRate = timecode.DefaultRate
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.Compensation == nil {
		opts.Compensation = func() int { return 0 }
	}
	return &Session{
		id:     uuid.New().String(),
		opts:   opts,
		events: make(chan Event, 64),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// ID is the unique identifier for this run.
func (s *Session) ID() string { return s.id }

// Events is the one-directional notification stream. It is closed when the
// loop exits, after the trailing clip and EDL write are finished.
func (s *Session) Events() <-chan Event { return s.events }

// Inputs lists the switcher's reported inputs, for the presentation layer's
// input panel.
func (s *Session) Inputs() []switcher.Input { return s.opts.Feed.Inputs() }

// OutputPath is the configured EDL destination, empty when none was set.
func (s *Session) OutputPath() string { return s.opts.OutputPath }

// Start launches the poll loop goroutine.
func (s *Session) Start() {
	go s.run()
}

// Stop signals the loop and blocks until it has finalized the trailing clip
// and written the EDL. It returns the EDL write error, if any. Safe to call
// more than once.
func (s *Session) Stop() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	<-s.done
	return s.writeErr
}

// Clips returns the finalized clip log, blocking until the loop has exited.
func (s *Session) Clips() []tracker.Clip {
	<-s.done
	out := make([]tracker.Clip, len(s.clips))
	copy(out, s.clips)
	return out
}

func (s *Session) run() {
	defer close(s.done)
	defer close(s.events)
	defer s.closeDevices()

	log := slog.With("session", s.id)
	log.Info("monitoring started")

	tr := tracker.New()
	var (
		lastInput string
		lastTC    timecode.Timecode
		haveTC    bool
	)

	for {
		select {
		case <-s.stop:
			s.finish(tr, log)
			return
		default:
		}

		input, err := s.opts.Feed.ProgramInput()
		if err != nil {
			log.Warn("reading program input failed", "err", err)
			time.Sleep(s.opts.Backoff)
			continue
		}
		name := input.String()
		s.publish(Event{Kind: InputChanged, Input: name})

		if tc, ok := s.opts.Deck.QueryTimecode(); ok {
			lastTC = tc
			haveTC = true
			s.publish(Event{Kind: TimecodeUpdated, Timecode: tc.String()})
		}

		changed := name != lastInput
		lastInput = name

		if haveTC {
			if clip, edge := tr.Observe(name, lastTC); edge {
				s.clips = append(s.clips, clip)
				log.Info("program cut", "source", clip.Source, "start", clip.Start.String(), "end", clip.End.String())
				s.publish(Event{Kind: ClipCompleted, Clip: ClipSummary{
					Source: clip.Source,
					Start:  clip.Start.String(),
					End:    clip.End.String(),
				}})
			}
		}

		// Back off only when nothing changed, to keep timecode sampling
		// tight around an edge.
		if !changed {
			time.Sleep(s.opts.Backoff)
		}
	}
}

// finish finalizes the trailing clip and serializes the EDL.
func (s *Session) finish(tr *tracker.Tracker, log *slog.Logger) {
	if clip, ok := tr.Finish(); ok {
		s.clips = append(s.clips, clip)
		log.Info("trailing clip closed", "source", clip.Source, "start", clip.Start.String(), "end", clip.End.String())
	}

	if s.opts.OutputPath == "" {
		log.Info("no destination path configured, skipping EDL write")
		return
	}
	s.writeErr = edl.Write(s.opts.OutputPath, s.clips, s.opts.Compensation(), s.opts.FrameRate)
	if s.writeErr != nil {
		log.Error("EDL write failed", "path", s.opts.OutputPath, "err", s.writeErr)
	}
}

func (s *Session) closeDevices() {
	if err := s.opts.Feed.Close(); err != nil {
		slog.Debug("closing switcher feed", "err", err)
	}
	if err := s.opts.Deck.Close(); err != nil {
		slog.Debug("closing deck connection", "err", err)
	}
}

// publish delivers an event without ever blocking the loop: if the
// presentation side has fallen behind, the notification is dropped.
func (s *Session) publish(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}
