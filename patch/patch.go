// SPDX-License-Identifier: EPL-2.0

package patch

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ik5/symphoxy/asset"
	"github.com/ik5/symphoxy/clock"
	"github.com/ik5/symphoxy/graph"
)

var (
	ErrUnknownPatch = errors.New("unknown patch")
	ErrEmptySample  = errors.New("sampler needs audio data")
)

// Factory builds a template around an amplitude envelope.
type Factory func(env graph.ADSR) (*graph.Template, error)

var factories = map[string]Factory{
	"sine":  Sine,
	"piano": Piano,
	"bass":  Bass,
	"pad":   Pad,
	"pluck": Pluck,
}

// Lookup returns the factory registered under name, ignoring case.
func Lookup(name string) (Factory, error) {
	f, ok := factories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownPatch, name, strings.Join(Names(), ", "))
	}
	return f, nil
}

// Names returns the registered patch names in order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultADSR is a general purpose envelope at rate: 5ms attack, 120ms
// decay to 0.7 and a 250ms release.
func DefaultADSR(rate clock.SampleRate) graph.ADSR {
	return graph.ADSR{
		Attack:  rate.N(5 * time.Millisecond),
		Decay:   rate.N(120 * time.Millisecond),
		Sustain: 0.7,
		Release: rate.N(250 * time.Millisecond),
	}
}

// Sine is a single sine oscillator.
func Sine(env graph.ADSR) (*graph.Template, error) {
	b := graph.NewBuilder()
	osc := b.Add("osc", &graph.Oscillator{Wave: graph.WaveSine})
	out := b.Add("env", &graph.Envelope{ADSR: env}, osc)
	return b.Build(out)
}

// Piano is a two operator FM voice. The modulator runs at twice the note
// frequency and its index decays faster than the carrier, which gives the
// bright attack of a struck string.
func Piano(env graph.ADSR) (*graph.Template, error) {
	b := graph.NewBuilder()
	mod := b.Add("mod", &graph.Oscillator{Wave: graph.WaveSine, Ratio: 2})
	index := b.Add("index", &graph.Envelope{
		ADSR: graph.ADSR{
			Attack:  env.Attack,
			Decay:   max(env.Decay/2, 1),
			Sustain: 0.2,
			Release: env.Release,
		},
	}, mod)
	carrier := b.Add("carrier", &graph.Oscillator{Wave: graph.WaveSine, ModDepth: 600}, index)
	gain := b.Add("gain", &graph.Gain{Gain: 0.6}, carrier)
	out := b.Add("env", &graph.Envelope{ADSR: env}, gain)
	return b.Build(out)
}

// Bass is a saw through a resonant lowpass. The cutoff opens with its own
// fast envelope and with the mod wheel.
func Bass(env graph.ADSR) (*graph.Template, error) {
	b := graph.NewBuilder()
	saw := b.Add("saw", &graph.Oscillator{Wave: graph.WaveSaw})
	sweep := b.Add("sweep", &graph.Envelope{
		ADSR: graph.ADSR{
			Attack:  env.Attack,
			Decay:   env.Decay,
			Sustain: 0.1,
			Release: env.Release,
		},
		Depth: 1800,
	})
	wheel := b.Add("wheel", &graph.Control{Source: graph.ControlModulation, Scale: 2000})
	filter := b.Add("filter", &graph.Filter{Kind: graph.Lowpass, Cutoff: 180, Q: 2.5, ModDepth: 1}, saw, sweep, wheel)
	gain := b.Add("gain", &graph.Gain{Gain: 0.7}, filter)
	out := b.Add("env", &graph.Envelope{ADSR: env}, gain)
	return b.Build(out)
}

// Pad is three detuned saws sharing one vibrato LFO, softened by a
// lowpass.
func Pad(env graph.ADSR) (*graph.Template, error) {
	b := graph.NewBuilder()
	lfo := b.Add("vibrato", &graph.Oscillator{Wave: graph.WaveSine, Freq: 5, Fixed: true})

	var saws []graph.NodeID
	for i, cents := range []float64{-7, 0, 7} {
		saws = append(saws, b.Add(fmt.Sprintf("saw%d", i),
			&graph.Oscillator{Wave: graph.WaveSaw, Detune: cents, ModDepth: 3, Phase: float64(i) / 3}, lfo))
	}
	mix := b.Add("mix", &graph.Mixer{Weights: []float64{1. / 3, 1. / 3, 1. / 3}}, saws...)
	filter := b.Add("filter", &graph.Filter{Kind: graph.Lowpass, Cutoff: 2200}, mix)
	out := b.Add("env", &graph.Envelope{ADSR: env}, filter)
	return b.Build(out)
}

// Pluck is a square wave through a fixed bandpass.
func Pluck(env graph.ADSR) (*graph.Template, error) {
	b := graph.NewBuilder()
	sq := b.Add("square", &graph.Oscillator{Wave: graph.WaveSquare, Amplitude: 0.5})
	filter := b.Add("filter", &graph.Filter{Kind: graph.Bandpass, Cutoff: 1400, Q: 1.2}, sq)
	out := b.Add("env", &graph.Envelope{ADSR: env}, filter)
	return b.Build(out)
}

// Sampler plays buf transposed so that root Hz plays at the recorded
// pitch.
func Sampler(buf asset.Buffer, root float64, env graph.ADSR) (*graph.Template, error) {
	if len(buf.Data) == 0 {
		return nil, ErrEmptySample
	}
	b := graph.NewBuilder()
	smp := b.Add("sample", &graph.Sampler{Data: buf.Data, Rate: buf.Rate, Root: root})
	out := b.Add("env", &graph.Envelope{ADSR: env}, smp)
	return b.Build(out)
}
