// SPDX-License-Identifier: EPL-2.0

package monitor

import (
	"sync"
	"sync/atomic"

	"github.com/ik5/symphoxy/audio"
	"github.com/ik5/symphoxy/clock"
	"github.com/ik5/symphoxy/sink"
)

// Summary is the level reading of one or more consecutive blocks.
type Summary struct {
	Start   clock.Index
	Frames  int
	Peak    float64
	RMS     float64
	Clipped int
}

// End returns the index one past the summarised frames.
func (s Summary) End() clock.Index { return s.Start + clock.Index(s.Frames) }

// Options configure a Monitor.
type Options struct {
	// Every merges this many blocks into one Summary; zero means 1.
	Every int
	// Buffer is the capacity of the summary channel; zero means 16.
	Buffer int
}

// Monitor is a sink decorator. It forwards every block to the wrapped
// sink unchanged; a nil sink makes it a terminal sink.
type Monitor struct {
	next sink.Sink
	opts Options
	ch   chan Summary

	acc     Summary
	sq      float64 // sum of squares in acc
	samples int
	blocks  int

	dropped atomic.Uint64
	once    sync.Once
}

// New wraps next.
func New(next sink.Sink, opts Options) *Monitor {
	if opts.Every <= 0 {
		opts.Every = 1
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	return &Monitor{
		next: next,
		opts: opts,
		ch:   make(chan Summary, opts.Buffer),
	}
}

// Summaries returns the channel readings are published on. It is closed
// by Close and Abort.
func (m *Monitor) Summaries() <-chan Summary { return m.ch }

// Dropped returns the number of readings lost to a full channel.
func (m *Monitor) Dropped() uint64 { return m.dropped.Load() }

func (m *Monitor) Write(b audio.Block) error {
	m.add(b)
	if m.blocks >= m.opts.Every {
		m.flush()
	}
	if m.next == nil {
		return nil
	}
	return m.next.Write(b)
}

func (m *Monitor) add(b audio.Block) {
	if m.blocks == 0 {
		m.acc = Summary{Start: b.Start}
		m.sq, m.samples = 0, 0
	}
	m.blocks++
	m.acc.Frames += b.Frames
	m.acc.Clipped += b.Clipped()
	m.acc.Peak = max(m.acc.Peak, b.Peak())
	rms := b.RMS()
	m.sq += rms * rms * float64(len(b.Samples))
	m.samples += len(b.Samples)
	m.acc.RMS = sqrtMean(m.sq, m.samples)
}

func (m *Monitor) flush() {
	if m.blocks == 0 {
		return
	}
	select {
	case m.ch <- m.acc:
	default:
		m.dropped.Add(1)
	}
	m.blocks = 0
}

// Close publishes any partial reading, then closes the wrapped sink.
func (m *Monitor) Close() error {
	var err error
	m.once.Do(func() {
		m.flush()
		close(m.ch)
		if m.next != nil {
			err = m.next.Close()
		}
	})
	return err
}

// Abort aborts the wrapped sink.
func (m *Monitor) Abort() error {
	var err error
	m.once.Do(func() {
		close(m.ch)
		if m.next != nil {
			err = sink.Abort(m.next)
		}
	})
	return err
}
