// Package switcher exposes the one capability the logger needs from a video
// switcher: the identity of the currently active program input. The concrete
// ATEM client and a scripted feed for demos both satisfy Feed, so nothing
// else in the tree depends on a vendor protocol surface.
package switcher

import "fmt"

// Input identifies a switcher video source. It is opaque to callers: they
// only compare and display it.
type Input struct {
	ID   uint16
	Name string
}

// String returns the input's long name when the switcher reported one.
func (in Input) String() string {
	if in.Name != "" {
		return in.Name
	}
	return fmt.Sprintf("Input %d", in.ID)
}

// Feed is the program-bus capability the monitoring session consumes.
type Feed interface {
	// ProgramInput returns the source currently live on the program bus.
	ProgramInput() (Input, error)
	// Inputs lists the external video inputs known to the switcher,
	// ordered by input id.
	Inputs() []Input
	Close() error
}
