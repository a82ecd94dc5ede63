// SPDX-License-Identifier: EPL-2.0

package graph

import "math"

// FilterKind selects the biquad response.
type FilterKind uint8

const (
	Lowpass FilterKind = iota
	Highpass
	Bandpass
)

// Filter is a second-order IIR section in Direct Form II Transposed with
// RBJ cookbook coefficients. in[0] is the signal; any further inputs are
// summed and move the cutoff by ModDepth Hz per unit.
type Filter struct {
	Kind     FilterKind
	Cutoff   float64 // Hz
	Q        float64 // zero means 1/sqrt(2)
	ModDepth float64

	b0, b1, b2, a1, a2 float64
	hist               [2]float64
	designed           float64 // cutoff the coefficients were computed for
	designedQ          float64
	rate               float64
}

// cutoffEpsilon is the cutoff change, in Hz, that forces a redesign.
const cutoffEpsilon = 0.5

func (f *Filter) Process(ctx *Context, in []float64) float64 {
	if len(in) == 0 {
		return 0
	}

	cutoff := f.Cutoff
	if len(in) > 1 {
		cutoff += sum(in[1:]) * f.ModDepth
	}
	rate := float64(ctx.Rate)
	q := f.quality()
	if rate != f.rate || q != f.designedQ || math.Abs(cutoff-f.designed) > cutoffEpsilon {
		f.design(cutoff, q, rate)
	}

	x := in[0]
	y := f.b0*x + f.hist[0]
	f.hist[0] = f.b1*x - f.a1*y + f.hist[1]
	f.hist[1] = f.b2*x - f.a2*y

	if math.IsNaN(y) || math.IsInf(y, 0) || math.IsNaN(f.hist[0]) || math.IsInf(f.hist[0], 0) {
		// Unstable: drop the history and let the sanitiser clamp y.
		f.hist = [2]float64{}
	}
	return y
}

func (f *Filter) quality() float64 {
	if f.Q <= 0 {
		return math.Sqrt2 / 2
	}
	return f.Q
}

func (f *Filter) design(cutoff, q, rate float64) {
	f.designed, f.designedQ, f.rate = cutoff, q, rate

	fc := min(max(cutoff, 1), 0.49*rate)
	w0 := 2 * math.Pi * fc / rate
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	var b0, b1, b2 float64
	switch f.Kind {
	case Lowpass:
		b0 = (1 - cw) / 2
		b1 = 1 - cw
		b2 = (1 - cw) / 2
	case Highpass:
		b0 = (1 + cw) / 2
		b1 = -(1 + cw)
		b2 = (1 + cw) / 2
	case Bandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
	}
	a0 := 1 + alpha
	f.b0, f.b1, f.b2 = b0/a0, b1/a0, b2/a0
	f.a1 = -2 * cw / a0
	f.a2 = (1 - alpha) / a0
}

func (f *Filter) SetParam(name string, v float64) bool {
	switch name {
	case "cutoff":
		f.Cutoff = v
	case "q":
		f.Q = v
	case "depth":
		f.ModDepth = v
	default:
		return false
	}
	return true
}

func (f *Filter) Clone() Node {
	return &Filter{Kind: f.Kind, Cutoff: f.Cutoff, Q: f.Q, ModDepth: f.ModDepth}
}

func (f *Filter) Reset() {
	f.hist = [2]float64{}
	f.rate = 0
}
