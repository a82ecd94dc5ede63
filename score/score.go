// SPDX-License-Identifier: EPL-2.0

package score

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ik5/symphoxy/clock"
	"github.com/ik5/symphoxy/event"
)

var (
	ErrInvalidScore = errors.New("invalid score")
	ErrInvalidBPM   = errors.New("bpm must be between 20 and 400")
)

// Tempo limits.
const (
	MinBPM = 20
	MaxBPM = 400
)

// DefaultVelocity is used for notes that leave velocity unset.
const DefaultVelocity = 0.8

// Note is one note on the beat grid.
type Note struct {
	Pitch    Pitch   `json:"pitch"`
	Beat     float64 `json:"beat"`
	Length   float64 `json:"length"`
	Velocity float64 `json:"velocity,omitempty"`
}

// Param is a parameter change on the beat grid. A nil Note addresses
// every voice.
type Param struct {
	Beat  float64 `json:"beat"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Note  *int    `json:"note,omitempty"`
}

// Score is a parsed score document.
type Score struct {
	BPM        float64 `json:"bpm"`
	Instrument string  `json:"instrument"`
	Notes      []Note  `json:"notes"`
	Params     []Param `json:"params,omitempty"`
}

// Parse reads and validates a score. Unknown fields are rejected.
func Parse(r io.Reader) (*Score, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var s Score
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScore, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseFile parses the score at path.
func ParseFile(path string) (*Score, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ValidBPM reports whether bpm is an accepted tempo.
func ValidBPM(bpm float64) bool {
	return bpm >= MinBPM && bpm <= MaxBPM
}

// Validate checks tempo and note ranges.
func (s *Score) Validate() error {
	if !ValidBPM(s.BPM) {
		return fmt.Errorf("%w: got %v", ErrInvalidBPM, s.BPM)
	}
	for i, n := range s.Notes {
		switch {
		case math.IsNaN(n.Beat) || n.Beat < 0:
			return fmt.Errorf("%w: note %d: beat %v", ErrInvalidScore, i, n.Beat)
		case math.IsNaN(n.Length) || n.Length <= 0:
			return fmt.Errorf("%w: note %d: length %v", ErrInvalidScore, i, n.Length)
		case math.IsNaN(n.Velocity) || n.Velocity < 0 || n.Velocity > 1:
			return fmt.Errorf("%w: note %d: velocity %v", ErrInvalidScore, i, n.Velocity)
		}
	}
	for i, p := range s.Params {
		switch {
		case math.IsNaN(p.Beat) || p.Beat < 0:
			return fmt.Errorf("%w: param %d: beat %v", ErrInvalidScore, i, p.Beat)
		case strings.TrimSpace(p.Name) == "":
			return fmt.Errorf("%w: param %d: empty name", ErrInvalidScore, i)
		case p.Note != nil && (*p.Note < 0 || *p.Note > 127):
			return fmt.Errorf("%w: param %d: note %d", ErrInvalidScore, i, *p.Note)
		}
	}
	return nil
}

// SamplesPerBeat returns the length of one beat at rate.
func (s *Score) SamplesPerBeat(rate clock.SampleRate) float64 {
	return float64(rate) * 60 / s.BPM
}

func (s *Score) index(beat float64, rate clock.SampleRate) clock.Index {
	return clock.Index(math.Round(beat * s.SamplesPerBeat(rate)))
}

// Events converts the score to events at rate, ordered by index. At one
// index note-offs come first, then note-ons, then parameter changes, so a
// repeated pitch restarts cleanly and a parameter aimed at a new note
// finds it sounding.
func (s *Score) Events(rate clock.SampleRate) []event.Event {
	evs := make([]event.Event, 0, 2*len(s.Notes)+len(s.Params))
	for _, n := range s.Notes {
		on := s.index(n.Beat, rate)
		off := max(s.index(n.Beat+n.Length, rate), on+1)
		vel := n.Velocity
		if vel == 0 {
			vel = DefaultVelocity
		}
		evs = append(evs,
			event.Event{At: on, Kind: event.NoteOn, Note: int(n.Pitch), Velocity: vel},
			event.Event{At: off, Kind: event.NoteOff, Note: int(n.Pitch)},
		)
	}
	for _, p := range s.Params {
		note := event.AnyNote
		if p.Note != nil {
			note = *p.Note
		}
		evs = append(evs, event.Event{
			At: s.index(p.Beat, rate), Kind: event.ParamChange, Note: note, Param: p.Name, Value: p.Value,
		})
	}

	slices.SortStableFunc(evs, func(a, b event.Event) int {
		return cmp.Or(cmp.Compare(a.At, b.At), cmp.Compare(kindOrder(a.Kind), kindOrder(b.Kind)))
	})
	return evs
}

func kindOrder(k event.Kind) int {
	switch k {
	case event.NoteOff:
		return 0
	case event.NoteOn:
		return 1
	}
	return 2
}

// Beats returns the beat at which the last note ends.
func (s *Score) Beats() float64 {
	var end float64
	for _, n := range s.Notes {
		end = max(end, n.Beat+n.Length)
	}
	return end
}

// Duration returns the time at which the last note ends, without release
// tails.
func (s *Score) Duration() time.Duration {
	return time.Duration(s.Beats() * 60 / s.BPM * float64(time.Second))
}

// Transpose shifts every note by semitones, clamping to the MIDI range.
func (s *Score) Transpose(semitones int) {
	for i := range s.Notes {
		s.Notes[i].Pitch = Pitch(min(max(int(s.Notes[i].Pitch)+semitones, 0), 127))
	}
}
