// SPDX-License-Identifier: EPL-2.0

package graph

import "strings"

// Graph is one playable instance of a Template. It is not safe for
// concurrent use.
type Graph struct {
	tmpl    *Template
	nodes   []Node
	values  []float64
	scratch []float64

	gates   []Gate
	pitched []Pitched
	primary *Envelope

	ctx      Context // Render's running context
	released bool
	clamped  uint64
}

// Tick evaluates every node once and returns the output sample.
func (g *Graph) Tick(ctx *Context) float64 {
	t := g.tmpl
	for _, id := range t.order {
		ins := t.inputs[id]
		in := g.scratch[:len(ins)]
		for i, src := range ins {
			in[i] = g.values[src]
		}
		v, bad := sanitize(g.nodes[id].Process(ctx, in))
		if bad {
			g.clamped++
		}
		g.values[id] = v
	}
	out, bad := bound(g.values[t.out])
	if bad {
		g.clamped++
	}
	return out
}

// Render fills dst with consecutive samples starting at ctx.Now.
func (g *Graph) Render(ctx Context, dst []float64) {
	g.ctx = ctx
	for i := range dst {
		dst[i] = g.Tick(&g.ctx)
		g.ctx.Now++
	}
}

// NoteOn tunes every pitched node to hz and opens every gate.
func (g *Graph) NoteOn(hz, velocity float64) {
	g.released = false
	for _, p := range g.pitched {
		p.SetFrequency(hz)
	}
	for _, gate := range g.gates {
		gate.NoteOn(velocity)
	}
}

// NoteOff closes every gate.
func (g *Graph) NoteOff() {
	g.released = true
	for _, gate := range g.gates {
		gate.NoteOff()
	}
}

// SetParam forwards a parameter change. A name of the form "node.param"
// targets the named node only; a bare name goes to every tunable node.
// It reports whether any node accepted the change.
func (g *Graph) SetParam(name string, value float64) bool {
	target, param, scoped := strings.Cut(name, ".")
	if !scoped {
		param = name
	}

	accepted := false
	for i, n := range g.nodes {
		if scoped && g.tmpl.names[i] != target {
			continue
		}
		if tn, ok := n.(Tunable); ok && tn.SetParam(param, value) {
			accepted = true
		}
	}
	return accepted
}

// SetThreshold sets the silence threshold of every envelope.
func (g *Graph) SetThreshold(th float64) {
	for _, n := range g.nodes {
		if e, ok := n.(*Envelope); ok {
			e.ADSR.Threshold = th
		}
	}
}

// Reset restores every node to its initial state.
func (g *Graph) Reset() {
	for _, n := range g.nodes {
		n.Reset()
	}
	clear(g.values)
	g.released = false
}

// Stage returns the stage of the primary envelope, the envelope closest
// to the output. A graph without envelopes reports StageSustain while
// held and StageDone once released.
func (g *Graph) Stage() Stage {
	if g.primary != nil {
		return g.primary.Stage()
	}
	if g.released {
		return StageDone
	}
	return StageSustain
}

// Level returns the primary envelope level before velocity scaling.
func (g *Graph) Level() float64 {
	if g.primary != nil {
		return g.primary.Level()
	}
	if g.released {
		return 0
	}
	return 1
}

// Done reports whether the primary envelope finished.
func (g *Graph) Done() bool {
	return g.Stage() == StageDone
}

// TakeClamped returns and resets the number of sanitised samples.
func (g *Graph) TakeClamped() uint64 {
	n := g.clamped
	g.clamped = 0
	return n
}
