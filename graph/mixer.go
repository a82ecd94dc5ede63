// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"strconv"
	"strings"
)

// Mixer sums its inputs, each scaled by the weight at the same index.
// Missing weights count as 1.
type Mixer struct {
	Weights []float64
}

func (m *Mixer) Process(_ *Context, in []float64) float64 {
	var s float64
	for i, v := range in {
		w := 1.0
		if i < len(m.Weights) {
			w = m.Weights[i]
		}
		s += v * w
	}
	return s
}

// SetParam accepts "weightN" for input N.
func (m *Mixer) SetParam(name string, v float64) bool {
	idx, ok := strings.CutPrefix(name, "weight")
	if !ok {
		return false
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 || i >= 64 {
		return false
	}
	for len(m.Weights) <= i {
		m.Weights = append(m.Weights, 1)
	}
	m.Weights[i] = v
	return true
}

func (m *Mixer) Clone() Node {
	return &Mixer{Weights: append([]float64(nil), m.Weights...)}
}

func (m *Mixer) Reset() {}

// Gain multiplies the sum of its inputs.
type Gain struct {
	Gain float64
}

func (g *Gain) Process(_ *Context, in []float64) float64 {
	return sum(in) * g.Gain
}

func (g *Gain) SetParam(name string, v float64) bool {
	if name != "gain" {
		return false
	}
	g.Gain = v
	return true
}

func (g *Gain) Clone() Node { return &Gain{Gain: g.Gain} }
func (g *Gain) Reset()      {}

// Constant outputs a fixed value.
type Constant struct {
	Value float64
}

func (c *Constant) Process(*Context, []float64) float64 { return c.Value }

func (c *Constant) SetParam(name string, v float64) bool {
	if name != "value" {
		return false
	}
	c.Value = v
	return true
}

func (c *Constant) Clone() Node { return &Constant{Value: c.Value} }
func (c *Constant) Reset()      {}

// ControlSource selects the external control a Control node reads.
type ControlSource uint8

const (
	ControlModulation ControlSource = iota
	ControlPitchBend
)

// Control exposes an externally driven control value as a signal.
type Control struct {
	Source ControlSource
	Scale  float64 // zero means 1
}

func (c *Control) Process(ctx *Context, _ []float64) float64 {
	v := ctx.Modulation
	if c.Source == ControlPitchBend {
		v = ctx.PitchBend
	}
	if c.Scale != 0 {
		v *= c.Scale
	}
	return v
}

func (c *Control) Clone() Node { return &Control{Source: c.Source, Scale: c.Scale} }
func (c *Control) Reset()      {}
