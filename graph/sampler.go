// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"github.com/ik5/symphoxy/clock"
	"github.com/ik5/symphoxy/utils"
)

// Sampler plays a mono buffer recorded at Rate, transposed so that Root Hz
// plays at the original speed. The buffer is shared between clones and
// must not be modified after the first Clone.
type Sampler struct {
	Data []float64
	Rate clock.SampleRate // zero means the session rate
	Root float64          // zero means 440
	Loop bool
	Gain float64 // zero means 1

	pos  float64
	step float64
	hz   float64
	rate clock.SampleRate
	bend float64
}

func (s *Sampler) Process(ctx *Context, _ []float64) float64 {
	if len(s.Data) == 0 || s.hz == 0 {
		return 0
	}
	if s.rate != ctx.Rate || ctx.PitchBend != s.bend || s.step == 0 {
		s.rate, s.bend = ctx.Rate, ctx.PitchBend
		s.step = s.speed(ctx.Rate) * bendRatio(s.bend)
	}

	n := float64(len(s.Data))
	if s.pos >= n {
		if !s.Loop {
			return 0
		}
		s.pos -= n * float64(int(s.pos/n))
	}

	v := utils.Interpolate(s.Data, s.pos)
	s.pos += s.step
	if s.Gain != 0 {
		v *= s.Gain
	}
	return v
}

func (s *Sampler) speed(rate clock.SampleRate) float64 {
	root := s.Root
	if root == 0 {
		root = 440
	}
	src := s.Rate
	if src == 0 {
		src = rate
	}
	return s.hz / root * float64(src) / float64(rate)
}

// SetFrequency transposes playback and restarts it from the start.
func (s *Sampler) SetFrequency(hz float64) {
	s.hz = hz
	s.pos = 0
	s.step = 0
}

// Finished reports whether a one-shot sample played to its end.
func (s *Sampler) Finished() bool {
	return !s.Loop && s.pos >= float64(len(s.Data))
}

func (s *Sampler) SetParam(name string, v float64) bool {
	switch name {
	case "root":
		s.Root = v
		s.step = 0
	case "gain":
		s.Gain = v
	default:
		return false
	}
	return true
}

func (s *Sampler) Clone() Node {
	return &Sampler{Data: s.Data, Rate: s.Rate, Root: s.Root, Loop: s.Loop, Gain: s.Gain}
}

func (s *Sampler) Reset() {
	s.pos, s.step, s.hz, s.rate, s.bend = 0, 0, 0, 0, 0
}
