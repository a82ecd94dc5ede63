// SPDX-License-Identifier: EPL-2.0

package score

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ik5/symphoxy/voice"
)

var ErrInvalidNote = errors.New("invalid note")

var pitchClass = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteNumber parses a note name such as "A4", "c#3" or "Bb-1", or a
// plain MIDI number, into a MIDI note number. Octave 4 holds middle C
// (60).
func NoteNumber(name string) (int, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidNote)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return checkRange(n, name)
	}

	pc, ok := pitchClass[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNote, name)
	}
	rest := s[1:]
accidentals:
	for len(rest) > 0 {
		switch rest[0] {
		case '#':
			pc++
		case 'b':
			pc--
		default:
			break accidentals
		}
		rest = rest[1:]
	}
	oct, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("%w: %q has no octave", ErrInvalidNote, name)
	}
	return checkRange((oct+1)*12+pc, name)
}

func checkRange(n int, name string) (int, error) {
	if n < 0 || n > 127 {
		return 0, fmt.Errorf("%w: %q outside 0..127", ErrInvalidNote, name)
	}
	return n, nil
}

// NoteName returns the sharp spelling of a MIDI note, for example "C#4".
func NoteName(note int) string {
	return fmt.Sprintf("%s%d", sharpNames[((note%12)+12)%12], note/12-1)
}

// Frequency returns the equal-tempered frequency of a MIDI note with A4
// at 440 Hz.
func Frequency(note int) float64 {
	return voice.Frequency(note)
}

// Pitch is a MIDI note that decodes from a note name or a number.
type Pitch int

func (p *Pitch) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidNote, data)
		}
		s = strconv.Itoa(n)
	}
	n, err := NoteNumber(s)
	if err != nil {
		return err
	}
	*p = Pitch(n)
	return nil
}

func (p Pitch) MarshalJSON() ([]byte, error) {
	return json.Marshal(NoteName(int(p)))
}

func (p Pitch) String() string { return NoteName(int(p)) }
