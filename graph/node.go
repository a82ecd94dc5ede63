// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"math"

	"github.com/ik5/symphoxy/clock"
)

// NodeID addresses a node inside a graph arena.
type NodeID int

// Context carries the per-sample evaluation state shared by all nodes.
type Context struct {
	Now        clock.Index
	Rate       clock.SampleRate
	PitchBend  float64 // semitones
	Modulation float64 // 0..1, mod wheel
}

// Node produces one sample from its inputs and its own state.
// in holds the current outputs of the node's inputs in declaration order
// and must not be retained.
type Node interface {
	Process(ctx *Context, in []float64) float64
	// Clone returns a copy carrying the same settings and fresh state.
	Clone() Node
	// Reset returns the node to its freshly cloned state.
	Reset()
}

// Gate is implemented by nodes that respond to note on/off.
type Gate interface {
	NoteOn(velocity float64)
	NoteOff()
}

// Pitched is implemented by nodes that follow the played note.
type Pitched interface {
	SetFrequency(hz float64)
}

// Tunable is implemented by nodes with named parameters.
// SetParam reports whether the name was recognised.
type Tunable interface {
	SetParam(name string, value float64) bool
}

// MaxAmplitude bounds the output of a graph. Inner nodes may exceed it:
// control signals such as a cutoff sweep run in Hz.
const MaxAmplitude = 64.0

// sanitize replaces non-finite node outputs, reporting whether it had to
// intervene. NaN becomes 0 and infinities become ±MaxAmplitude.
func sanitize(v float64) (float64, bool) {
	switch {
	case math.IsNaN(v):
		return 0, true
	case math.IsInf(v, 1):
		return MaxAmplitude, true
	case math.IsInf(v, -1):
		return -MaxAmplitude, true
	}
	return v, false
}

// bound limits a graph output to ±MaxAmplitude.
func bound(v float64) (float64, bool) {
	switch {
	case v > MaxAmplitude:
		return MaxAmplitude, true
	case v < -MaxAmplitude:
		return -MaxAmplitude, true
	}
	return v, false
}

// sum adds all inputs.
func sum(in []float64) float64 {
	var s float64
	for _, v := range in {
		s += v
	}
	return s
}

// bendRatio converts semitones to a frequency ratio.
func bendRatio(semitones float64) float64 {
	if semitones == 0 {
		return 1
	}
	return math.Exp2(semitones / 12)
}
