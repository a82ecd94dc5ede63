// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"sync"

	"github.com/ik5/symphoxy/audio"
)

// Recorder is a sink that keeps a copy of every block it receives.
type Recorder struct {
	mu sync.Mutex

	Blocks  []audio.Block
	Closed  bool
	Aborted bool

	// FailAt, when positive, makes the FailAt-th Write (1-based) and every
	// later one return Err. Errs, when set, is consulted first: the n-th
	// Write returns Errs[n-1] if it is non-nil.
	FailAt int
	Err    error
	Errs   []error

	writes int
}

func (r *Recorder) Write(b audio.Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.writes++
	if r.writes <= len(r.Errs) && r.Errs[r.writes-1] != nil {
		return r.Errs[r.writes-1]
	}
	if r.FailAt > 0 && r.writes >= r.FailAt {
		return r.Err
	}
	r.Blocks = append(r.Blocks, b.Clone())
	return nil
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Closed = true
	return nil
}

func (r *Recorder) Abort() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Aborted = true
	return nil
}

// Samples returns every recorded sample in order.
func (r *Recorder) Samples() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []float64
	for _, b := range r.Blocks {
		out = append(out, b.Samples...)
	}
	return out
}

// Frames returns the number of recorded frames.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, b := range r.Blocks {
		n += b.Frames
	}
	return n
}
