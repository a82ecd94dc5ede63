// SPDX-License-Identifier: EPL-2.0

// Package graph implements the signal graph evaluated by the renderer.
//
// A graph is an arena of nodes addressed by NodeID. Edges are stored as
// indices, never as pointers between nodes, so a single node (for example
// a vibrato LFO) can feed several others without shared mutable state.
// Every node owns its internal state; values flow between nodes only as
// plain float64 samples passed in declaration order.
//
// # Building
//
//	b := graph.NewBuilder()
//	lfo := b.Add("lfo", &graph.Oscillator{Wave: graph.WaveSine, Freq: 5, Fixed: true})
//	osc := b.Add("osc", &graph.Oscillator{Wave: graph.WaveSaw, ModDepth: 3}, lfo)
//	env := b.Add("amp", &graph.Envelope{ADSR: graph.ADSR{Attack: 100, Decay: 200, Sustain: 0.7, Release: 4800}}, osc)
//	tmpl, err := b.Build(env)
//
// Build rejects cycles with ErrCycle before anything is rendered. A
// Template is immutable; Instantiate returns an independent Graph whose
// nodes carry fresh state, which is how each voice gets its own copy.
//
// # Evaluation
//
// Nodes are evaluated in topological order, children first, once per
// sample:
//
//	g := tmpl.Instantiate()
//	g.NoteOn(440, 1)
//	ctx := graph.Context{Rate: 48000}
//	s := g.Tick(&ctx)
//
// Every node output passes through a sanitiser. NaN becomes silence and
// infinities clamp to MaxAmplitude; each correction is counted and can be
// collected with TakeClamped.
//
// # Envelopes
//
// The ADSR envelope is a tagged state (EnvState) driven by two pure
// functions, Apply for gate triggers and Step for one sample of time, so
// its stage machine can be tested without running a graph.
package graph
