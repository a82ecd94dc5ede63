// SPDX-License-Identifier: EPL-2.0

package sink

import (
	"sync/atomic"

	"github.com/ik5/symphoxy/audio"
)

// Sink consumes rendered blocks. Write must not retain b.Samples after it
// returns. Close finalises the output.
type Sink interface {
	Write(b audio.Block) error
	Close() error
}

// Aborter is implemented by sinks that can discard their output instead
// of finalising it.
type Aborter interface {
	Abort() error
}

// Abort discards s when it supports it and closes it otherwise.
func Abort(s Sink) error {
	if a, ok := s.(Aborter); ok {
		return a.Abort()
	}
	return s.Close()
}

// Discard accepts and drops every block. It counts frames so benchmarks
// and dry runs can report throughput.
type Discard struct {
	frames atomic.Int64
	closed atomic.Bool
}

func (d *Discard) Write(b audio.Block) error {
	if d.closed.Load() {
		return &Error{Kind: KindClosed, Op: "write"}
	}
	d.frames.Add(int64(b.Frames))
	return nil
}

func (d *Discard) Close() error {
	d.closed.Store(true)
	return nil
}

// Frames returns the number of frames written.
func (d *Discard) Frames() int64 { return d.frames.Load() }

// Counters are the health counters of a sink.
type Counters struct {
	Underruns uint64
	Dropped   uint64
}

// Reporter is implemented by sinks that track their own health.
type Reporter interface {
	Counters() Counters
}
