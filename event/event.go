// SPDX-License-Identifier: EPL-2.0

package event

import (
	"fmt"
	"math"

	"github.com/ik5/symphoxy/clock"
)

// Kind identifies what an event does.
type Kind uint8

const (
	NoteOn Kind = iota + 1
	NoteOff
	ParamChange
)

func (k Kind) String() string {
	switch k {
	case NoteOn:
		return "note-on"
	case NoteOff:
		return "note-off"
	case ParamChange:
		return "param"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// AnyNote addresses every voice in a ParamChange.
const AnyNote = -1

// Event is a single timed change. Events are values; the scheduler never
// modifies an event after it was accepted, except for the clamp re-timing.
type Event struct {
	At   clock.Index
	Kind Kind
	// Note is a MIDI note number (0..127). ParamChange events may also use
	// AnyNote.
	Note     int
	Velocity float64 // 0..1, NoteOn only
	Param    string  // ParamChange only
	Value    float64 // ParamChange only

	seq uint64
}

func (e Event) String() string {
	switch e.Kind {
	case NoteOn:
		return fmt.Sprintf("%s@%d note=%d vel=%.3g", e.Kind, e.At, e.Note, e.Velocity)
	case ParamChange:
		return fmt.Sprintf("%s@%d note=%d %s=%g", e.Kind, e.At, e.Note, e.Param, e.Value)
	}
	return fmt.Sprintf("%s@%d note=%d", e.Kind, e.At, e.Note)
}

// Validate checks the payload of e.
func (e Event) Validate() error {
	switch e.Kind {
	case NoteOn:
		if math.IsNaN(e.Velocity) || e.Velocity < 0 || e.Velocity > 1 {
			return fmt.Errorf("%w: velocity %v outside [0,1]", ErrInvalidEvent, e.Velocity)
		}
		fallthrough
	case NoteOff:
		if e.Note < 0 || e.Note > 127 {
			return fmt.Errorf("%w: note %d outside 0..127", ErrInvalidEvent, e.Note)
		}
	case ParamChange:
		if e.Param == "" {
			return fmt.Errorf("%w: empty parameter name", ErrInvalidEvent)
		}
		if e.Note != AnyNote && (e.Note < 0 || e.Note > 127) {
			return fmt.Errorf("%w: note %d outside 0..127", ErrInvalidEvent, e.Note)
		}
		if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
			return fmt.Errorf("%w: %s value %v is not finite", ErrInvalidEvent, e.Param, e.Value)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidEvent, e.Kind)
	}
	if e.At < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidEvent, e.At)
	}
	return nil
}
