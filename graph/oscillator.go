// SPDX-License-Identifier: EPL-2.0

package graph

import "math"

// Wave selects an oscillator waveform.
type Wave uint8

const (
	WaveSine Wave = iota
	WaveSquare
	WaveSaw
	WaveTriangle
	WaveNoise
)

// Oscillator generates a periodic waveform. Inputs are summed and added
// to the frequency, scaled by ModDepth Hz per unit, which is how FM and
// vibrato are wired.
type Oscillator struct {
	Wave Wave
	// Freq is the frequency in Hz. Pitched oscillators overwrite it on
	// every note; Fixed oscillators (LFOs) keep it.
	Freq  float64
	Fixed bool
	// Ratio multiplies the note frequency; zero means 1.
	Ratio float64
	// Detune offsets the frequency in cents.
	Detune    float64
	ModDepth  float64
	Amplitude float64 // zero means 1
	Phase     float64 // initial phase in cycles
	Seed      uint32  // noise seed

	phase float64
	noise uint32
	freq  float64
	bend  float64
	ratio float64
	ready bool
}

func (o *Oscillator) Process(ctx *Context, in []float64) float64 {
	if !o.ready {
		o.Reset()
	}

	var s float64
	switch o.Wave {
	case WaveSine:
		s = math.Sin(2 * math.Pi * o.phase)
	case WaveSquare:
		if o.phase < 0.5 {
			s = 1
		} else {
			s = -1
		}
	case WaveSaw:
		s = 2*o.phase - 1
	case WaveTriangle:
		s = 1 - 4*math.Abs(o.phase-0.5)
	case WaveNoise:
		o.noise = (o.noise*1103515245 + 12345) & 0x7fffffff
		s = float64(o.noise)/float64(0x7fffffff)*2 - 1
	}

	freq := o.freq
	if !o.Fixed {
		if ctx.PitchBend != o.bend {
			o.bend = ctx.PitchBend
			o.ratio = bendRatio(o.bend)
		}
		freq *= o.ratio
	}
	if len(in) > 0 {
		freq += sum(in) * o.ModDepth
	}

	o.phase += freq / float64(ctx.Rate)
	o.phase -= math.Floor(o.phase)
	if math.IsNaN(o.phase) {
		o.phase = 0
	}

	if o.Amplitude != 0 {
		s *= o.Amplitude
	}
	return s
}

func (o *Oscillator) tune() {
	f := o.Freq
	if o.Ratio != 0 {
		f *= o.Ratio
	}
	if o.Detune != 0 {
		f *= math.Exp2(o.Detune / 1200)
	}
	o.freq = f
}

func (o *Oscillator) SetFrequency(hz float64) {
	if o.Fixed {
		return
	}
	o.Freq = hz
	o.tune()
}

func (o *Oscillator) SetParam(name string, v float64) bool {
	switch name {
	case "freq":
		o.Freq = v
	case "ratio":
		o.Ratio = v
	case "detune":
		o.Detune = v
	case "depth":
		o.ModDepth = v
		return true
	case "amp":
		o.Amplitude = v
		return true
	default:
		return false
	}
	o.tune()
	return true
}

func (o *Oscillator) Clone() Node {
	c := &Oscillator{
		Wave:      o.Wave,
		Freq:      o.Freq,
		Fixed:     o.Fixed,
		Ratio:     o.Ratio,
		Detune:    o.Detune,
		ModDepth:  o.ModDepth,
		Amplitude: o.Amplitude,
		Phase:     o.Phase,
		Seed:      o.Seed,
	}
	c.Reset()
	return c
}

func (o *Oscillator) Reset() {
	o.phase = o.Phase - math.Floor(o.Phase)
	o.noise = o.Seed
	o.bend = 0
	o.ratio = 1
	o.ready = true
	o.tune()
}
