// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"fmt"
	"slices"
)

// Builder assembles a node arena. The zero value is not usable; call
// NewBuilder.
type Builder struct {
	nodes  []Node
	names  []string
	inputs [][]int
	errs   []error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends n to the arena with the given inputs and returns its id.
// An empty name is replaced with the node's index.
func (b *Builder) Add(name string, n Node, inputs ...NodeID) NodeID {
	id := NodeID(len(b.nodes))
	if name == "" {
		name = fmt.Sprintf("node%d", id)
	}
	b.nodes = append(b.nodes, n)
	b.names = append(b.names, name)
	b.inputs = append(b.inputs, nil)
	for _, in := range inputs {
		b.Connect(id, in)
	}
	return id
}

// Connect appends src to the inputs of dst.
func (b *Builder) Connect(dst, src NodeID) {
	if !b.valid(dst) || !b.valid(src) {
		b.errs = append(b.errs, &GraphError{
			Op:  "connect",
			Err: fmt.Errorf("%w: %d -> %d", ErrUnknownNode, src, dst),
		})
		return
	}
	b.inputs[dst] = append(b.inputs[dst], int(src))
}

func (b *Builder) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(b.nodes)
}

// Build validates the arena and returns an immutable template whose
// output is the node out.
func (b *Builder) Build(out NodeID) (*Template, error) {
	if len(b.nodes) == 0 {
		return nil, &GraphError{Op: "build", Err: ErrEmptyGraph}
	}
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if !b.valid(out) {
		return nil, &GraphError{Op: "build", Err: fmt.Errorf("%w: output %d", ErrUnknownNode, out)}
	}

	if path := b.findCycle(); path != nil {
		names := make([]string, len(path))
		for i, id := range path {
			names[i] = b.names[id]
		}
		return nil, &GraphError{Op: "build", Path: names, Err: ErrCycle}
	}

	order := b.reachableOrder(int(out))

	primary := -1
	for _, id := range b.breadthFirst(int(out)) {
		if _, ok := b.nodes[id].(*Envelope); ok {
			primary = id
			break
		}
	}

	maxIn := 0
	for _, in := range b.inputs {
		maxIn = max(maxIn, len(in))
	}

	t := &Template{
		nodes:   make([]Node, len(b.nodes)),
		names:   slices.Clone(b.names),
		inputs:  make([][]int, len(b.inputs)),
		order:   order,
		out:     int(out),
		primary: primary,
		maxIn:   maxIn,
	}
	for i, n := range b.nodes {
		t.nodes[i] = n.Clone()
		t.inputs[i] = slices.Clone(b.inputs[i])
	}
	return t, nil
}

const (
	white = iota
	grey
	black
)

// findCycle runs a depth-first search over every node in id order and
// returns the first cycle found, closed by repeating its first node.
func (b *Builder) findCycle() []int {
	color := make([]int, len(b.nodes))
	var stack []int
	var cycle []int

	var visit func(id int) bool
	visit = func(id int) bool {
		color[id] = grey
		stack = append(stack, id)
		for _, in := range b.inputs[id] {
			switch color[in] {
			case grey:
				start := slices.Index(stack, in)
				cycle = append(slices.Clone(stack[start:]), in)
				return true
			case white:
				if visit(in) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for id := range b.nodes {
		if color[id] == white && visit(id) {
			return cycle
		}
	}
	return nil
}

// reachableOrder returns the nodes feeding out in post order, so every
// node appears after all of its inputs.
func (b *Builder) reachableOrder(out int) []int {
	seen := make([]bool, len(b.nodes))
	order := make([]int, 0, len(b.nodes))

	var visit func(id int)
	visit = func(id int) {
		seen[id] = true
		for _, in := range b.inputs[id] {
			if !seen[in] {
				visit(in)
			}
		}
		order = append(order, id)
	}
	visit(out)
	return order
}

func (b *Builder) breadthFirst(out int) []int {
	seen := make([]bool, len(b.nodes))
	queue := []int{out}
	seen[out] = true
	for i := 0; i < len(queue); i++ {
		for _, in := range b.inputs[queue[i]] {
			if !seen[in] {
				seen[in] = true
				queue = append(queue, in)
			}
		}
	}
	return queue
}

// Template is a validated, acyclic graph description.
type Template struct {
	nodes   []Node
	names   []string
	inputs  [][]int
	order   []int
	out     int
	primary int
	maxIn   int
}

// Len returns the number of nodes in the arena.
func (t *Template) Len() int { return len(t.nodes) }

// Names returns the node names in evaluation order.
func (t *Template) Names() []string {
	names := make([]string, len(t.order))
	for i, id := range t.order {
		names[i] = t.names[id]
	}
	return names
}

// Instantiate returns a graph with its own copy of every node.
func (t *Template) Instantiate() *Graph {
	g := &Graph{
		tmpl:    t,
		nodes:   make([]Node, len(t.nodes)),
		values:  make([]float64, len(t.nodes)),
		scratch: make([]float64, t.maxIn),
	}
	for i, n := range t.nodes {
		c := n.Clone()
		g.nodes[i] = c
		if gate, ok := c.(Gate); ok {
			g.gates = append(g.gates, gate)
		}
		if p, ok := c.(Pitched); ok {
			g.pitched = append(g.pitched, p)
		}
	}
	if t.primary >= 0 {
		g.primary = g.nodes[t.primary].(*Envelope)
	}
	return g
}
