// SPDX-License-Identifier: EPL-2.0

package voice

import (
	"errors"
	"fmt"
	"math"

	"github.com/ik5/symphoxy/clock"
	"github.com/ik5/symphoxy/event"
	"github.com/ik5/symphoxy/graph"
)

var (
	ErrInvalidSize = errors.New("pool size must be between 1 and 256")
	ErrNoTemplate  = errors.New("pool needs a graph template")
)

// MaxVoices bounds the pool size.
const MaxVoices = 256

// StealPolicy chooses the victim when every voice is busy.
type StealPolicy uint8

const (
	StealOldest StealPolicy = iota
	StealQuietest
	StealNone
)

var stealNames = [...]string{"oldest", "quietest", "none"}

func (p StealPolicy) String() string {
	if int(p) < len(stealNames) {
		return stealNames[p]
	}
	return fmt.Sprintf("steal(%d)", uint8(p))
}

// ParseStealPolicy parses the String form of a policy.
func ParseStealPolicy(s string) (StealPolicy, bool) {
	for i, name := range stealNames {
		if s == name {
			return StealPolicy(i), true
		}
	}
	return 0, false
}

// Transition is an envelope stage change of one voice. To is
// graph.StageIdle when the voice returns to the pool.
type Transition struct {
	Voice int
	Note  int
	From  graph.Stage
	To    graph.Stage
	At    clock.Index
}

// Options configure a Pool.
type Options struct {
	Size int
	// Threshold overrides the silence threshold of every envelope when
	// positive.
	Threshold float64
	// Holdoff is the number of samples a voice keeps rendering after its
	// envelope is done.
	Holdoff int
	Steal   StealPolicy
	// Transition, when set, is called on the render goroutine for every
	// stage change.
	Transition func(Transition)
}

// Stats are the pool counters.
type Stats struct {
	Started   uint64
	Stolen    uint64
	Dropped   uint64 // notes lost with StealNone
	Reclaimed uint64
	Clamped   uint64
	Active    int
}

// Voice is one graph instance bound to a note.
type Voice struct {
	id    int
	g     *graph.Graph
	note  int
	stage graph.Stage
	quiet int // samples rendered since the envelope finished
	busy  bool
}

// ID returns the voice's slot in the pool.
func (v *Voice) ID() int { return v.id }

// Note returns the bound note.
func (v *Voice) Note() int { return v.note }

// Stage returns the stage of the primary envelope.
func (v *Voice) Stage() graph.Stage { return v.stage }

// Level returns the primary envelope level.
func (v *Voice) Level() float64 { return v.g.Level() }

// Pool owns every voice of a session. It is not safe for concurrent use.
type Pool struct {
	opts   Options
	voices []*Voice
	active []*Voice // activation order
	stats  Stats
	ctx    graph.Context
}

// NewPool pre-instantiates opts.Size graphs from tmpl.
func NewPool(tmpl *graph.Template, opts Options) (*Pool, error) {
	if tmpl == nil {
		return nil, ErrNoTemplate
	}
	if opts.Size < 1 || opts.Size > MaxVoices {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, opts.Size)
	}
	opts.Holdoff = max(opts.Holdoff, 0)

	p := &Pool{
		opts:   opts,
		voices: make([]*Voice, opts.Size),
		active: make([]*Voice, 0, opts.Size),
	}
	for i := range p.voices {
		g := tmpl.Instantiate()
		if opts.Threshold > 0 {
			g.SetThreshold(opts.Threshold)
		}
		p.voices[i] = &Voice{id: i, g: g, note: -1}
	}
	return p, nil
}

// Frequency converts a MIDI note number to Hz in equal temperament with
// A4 (note 69) at 440 Hz.
func Frequency(note int) float64 {
	return 440 * math.Exp2(float64(note-69)/12)
}

// NoteOn starts note on a free or stolen voice and returns the voice id.
// It returns false when the note was dropped.
func (p *Pool) NoteOn(note int, velocity float64, at clock.Index) (int, bool) {
	v := p.free()
	if v == nil {
		v = p.steal()
		if v == nil {
			p.stats.Dropped++
			return -1, false
		}
		p.stats.Stolen++
	}

	from := v.stage
	if !v.busy {
		from = graph.StageIdle
	}
	v.g.Reset()
	v.g.NoteOn(Frequency(note), velocity)
	v.note, v.quiet, v.busy = note, 0, true
	v.stage = v.g.Stage()
	p.active = append(p.active, v)
	p.stats.Started++
	p.emit(v, from, at)
	return v.id, true
}

// NoteOff releases every voice holding note.
func (p *Pool) NoteOff(note int, at clock.Index) int {
	n := 0
	for _, v := range p.active {
		if v.note != note {
			continue
		}
		from := v.stage
		v.g.NoteOff()
		v.stage = v.g.Stage()
		if v.stage != from {
			n++
			p.emit(v, from, at)
		}
	}
	return n
}

// SetParam applies a parameter to every voice holding note, or to every
// voice for event.AnyNote. Idle voices receive broadcast changes too, so
// later notes start with them. It reports whether any node accepted it.
func (p *Pool) SetParam(note int, name string, value float64) bool {
	accepted := false
	if note == event.AnyNote {
		for _, v := range p.voices {
			if v.g.SetParam(name, value) {
				accepted = true
			}
		}
		return accepted
	}
	for _, v := range p.active {
		if v.note == note && v.g.SetParam(name, value) {
			accepted = true
		}
	}
	return accepted
}

// Render adds every active voice into dst, one sample per element,
// starting at ctx.Now. Voices finishing inside dst are reclaimed at the
// exact sample their holdoff ends.
func (p *Pool) Render(ctx graph.Context, dst []float64) {
	p.ctx = ctx
	live := p.active[:0]
	for _, v := range p.active {
		alive := true
		p.ctx.Now = ctx.Now
		for i := range dst {
			dst[i] += v.g.Tick(&p.ctx)
			if !p.observe(v, p.ctx.Now) {
				alive = false
				break
			}
			p.ctx.Now++
		}
		p.stats.Clamped += v.g.TakeClamped()
		if alive {
			live = append(live, v)
		}
	}
	clear(p.active[len(live):])
	p.active = live
}

// observe records stage changes after a sample and reports whether the
// voice is still active.
func (p *Pool) observe(v *Voice, at clock.Index) bool {
	if st := v.g.Stage(); st != v.stage {
		from := v.stage
		v.stage = st
		p.emit(v, from, at)
	}
	if v.stage != graph.StageDone {
		return true
	}
	v.quiet++
	if v.quiet < max(p.opts.Holdoff, 1) {
		return true
	}
	p.release(v, at)
	return false
}

func (p *Pool) release(v *Voice, at clock.Index) {
	from := v.stage
	v.busy = false
	v.stage = graph.StageIdle
	p.stats.Reclaimed++
	p.emit(v, from, at)
	v.note = -1
}

func (p *Pool) emit(v *Voice, from graph.Stage, at clock.Index) {
	if p.opts.Transition == nil || from == v.stage {
		return
	}
	p.opts.Transition(Transition{Voice: v.id, Note: v.note, From: from, To: v.stage, At: at})
}

func (p *Pool) free() *Voice {
	for _, v := range p.voices {
		if !v.busy {
			return v
		}
	}
	return nil
}

// steal removes the victim from the active list and returns it.
func (p *Pool) steal() *Voice {
	if len(p.active) == 0 {
		return nil
	}
	idx := 0
	switch p.opts.Steal {
	case StealNone:
		return nil
	case StealQuietest:
		quietest := math.Inf(1)
		for i, v := range p.active {
			if l := v.g.Level(); l < quietest {
				idx, quietest = i, l
			}
		}
	}
	v := p.active[idx]
	p.active = append(p.active[:idx], p.active[idx+1:]...)
	return v
}

// Active returns the active voices in activation order. The slice is
// owned by the pool.
func (p *Pool) Active() []*Voice { return p.active }

// Len returns the number of active voices.
func (p *Pool) Len() int { return len(p.active) }

// Size returns the pool capacity.
func (p *Pool) Size() int { return len(p.voices) }

// Stats returns the pool counters.
func (p *Pool) Stats() Stats {
	s := p.stats
	s.Active = len(p.active)
	return s
}

// Reset silences every voice without emitting transitions.
func (p *Pool) Reset() {
	for _, v := range p.voices {
		v.g.Reset()
		v.busy, v.note, v.quiet, v.stage = false, -1, 0, graph.StageIdle
	}
	clear(p.active)
	p.active = p.active[:0]
}
