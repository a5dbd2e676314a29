package session

import (
	"fmt"
	"time"

	"github.com/TelioTortay/ATEMLogger/internal/config"
	"github.com/TelioTortay/ATEMLogger/internal/hyperdeck"
	"github.com/TelioTortay/ATEMLogger/internal/switcher"
)

// Connect dials both devices from the config and builds a session over them.
// A failure to reach either device aborts before any loop iteration runs;
// the caller gets the connect error and no session.
func Connect(cfg config.Config, compensation func() int) (*Session, error) {
	if cfg.SwitcherAddress == "" {
		return nil, fmt.Errorf("session: switcher address is required")
	}
	if cfg.DeckAddress == "" {
		return nil, fmt.Errorf("session: deck address is required")
	}

	feed, err := switcher.Dial(cfg.SwitcherAddress)
	if err != nil {
		return nil, fmt.Errorf("connecting to switcher: %w", err)
	}

	deck, err := hyperdeck.Connect(cfg.DeckAddress)
	if err != nil {
		feed.Close()
		return nil, fmt.Errorf("connecting to deck: %w", err)
	}

	return New(Options{
		Feed:         feed,
		Deck:         deck,
		OutputPath:   cfg.OutputPath,
		FrameRate:    cfg.FrameRate,
		Backoff:      time.Duration(cfg.PollBackoffMS) * time.Millisecond,
		Compensation: compensation,
	})
}
