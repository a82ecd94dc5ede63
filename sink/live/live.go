// SPDX-License-Identifier: EPL-2.0

package live

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/symphoxy/audio"
	"github.com/ik5/symphoxy/clock"
	"github.com/ik5/symphoxy/sink"
)

// Policy selects what Write does when the queue is full.
type Policy uint8

const (
	// PolicyBlock waits up to WriteTimeout for room, then drops the block
	// and reports an underrun. Nothing queued is ever lost.
	PolicyBlock Policy = iota
	// PolicyDropOldest evicts the oldest queued block to make room.
	PolicyDropOldest
)

var ErrQueueFull = errors.New("queue full")

// Options configure a live sink.
type Options struct {
	Rate     clock.SampleRate
	Channels int
	// QueueBlocks bounds render-ahead; zero means 8.
	QueueBlocks int
	Policy      Policy
	// WriteTimeout bounds a PolicyBlock write; zero means 250ms.
	WriteTimeout time.Duration
	// BufferDuration is the device buffer; zero means 50ms.
	BufferDuration time.Duration
	// Device plays the stream; nil means the beep speaker.
	Device Device
	Logger *slog.Logger
}

// Stats are the sink counters.
type Stats struct {
	Underruns     uint64 // device pulls that found the queue empty
	Dropped       uint64 // blocks dropped by the backpressure policy
	PlayedFrames  uint64
	QueuedBlocks  int
	SilenceFrames uint64
}

// Sink is a live output. Write and Close must be called from one
// goroutine; the Streamer runs on the device goroutine.
type Sink struct {
	opts   Options
	logger *slog.Logger
	queue  chan audio.Block

	stream *Streamer

	dropped    atomic.Uint64
	lastFrames atomic.Int64
	reported   atomic.Uint64 // underruns already returned from Write
	lost       atomic.Pointer[error]
	closed     atomic.Bool
	once       sync.Once
}

// New opens the device and starts playback.
func New(opts Options) (*Sink, error) {
	if err := opts.Rate.Validate(); err != nil {
		return nil, err
	}
	if opts.Channels < 1 || opts.Channels > 2 {
		return nil, fmt.Errorf("%w: %d", audio.ErrInvalidChannels, opts.Channels)
	}
	if opts.QueueBlocks <= 0 {
		opts.QueueBlocks = 8
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 250 * time.Millisecond
	}
	if opts.BufferDuration <= 0 {
		opts.BufferDuration = 50 * time.Millisecond
	}
	if opts.Device == nil {
		opts.Device = &Speaker{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sink{
		opts:   opts,
		logger: logger,
		queue:  make(chan audio.Block, opts.QueueBlocks),
	}
	s.stream = &Streamer{queue: s.queue, done: make(chan struct{})}

	if n, ok := opts.Device.(LossNotifier); ok {
		n.OnLost(s.Fail)
	}
	bufferFrames := max(opts.Rate.N(opts.BufferDuration), 1)
	if err := opts.Device.Start(opts.Rate, bufferFrames, s.stream); err != nil {
		return nil, &sink.Error{Kind: sink.KindDeviceLost, Op: "open", Err: err}
	}
	logger.Debug("live output started",
		"rate", int(opts.Rate), "channels", opts.Channels,
		"queue_blocks", opts.QueueBlocks, "buffer_frames", bufferFrames)
	return s, nil
}

// Streamer returns the beep.Streamer fed by the sink.
func (s *Sink) Streamer() *Streamer { return s.stream }

// Fail marks the device as lost. It is safe to call from any goroutine;
// devices implementing LossNotifier reach it through their callback.
func (s *Sink) Fail(err error) {
	s.lost.CompareAndSwap(nil, &err)
}

func (s *Sink) Write(b audio.Block) error {
	if s.closed.Load() {
		return &sink.Error{Kind: sink.KindClosed, Op: "write"}
	}
	if errp := s.lost.Load(); errp != nil {
		return &sink.Error{Kind: sink.KindDeviceLost, Op: "write", Err: *errp}
	}
	if b.Channels != s.opts.Channels {
		return fmt.Errorf("live: block has %d channels, want %d", b.Channels, s.opts.Channels)
	}

	// The renderer reuses b.Samples.
	blk := b.Clone()
	s.lastFrames.Store(int64(b.Frames))

	switch s.opts.Policy {
	case PolicyDropOldest:
		for {
			select {
			case s.queue <- blk:
				return s.pendingUnderrun()
			default:
			}
			select {
			case <-s.queue:
				s.dropped.Add(1)
			default:
			}
		}

	default:
		select {
		case s.queue <- blk:
			return s.pendingUnderrun()
		default:
		}

		t := time.NewTimer(s.opts.WriteTimeout)
		defer t.Stop()
		select {
		case s.queue <- blk:
			return s.pendingUnderrun()
		case <-t.C:
			s.dropped.Add(1)
			return &sink.Error{
				Kind: sink.KindUnderrun,
				Op:   "write",
				Err:  fmt.Errorf("%w after %v", ErrQueueFull, s.opts.WriteTimeout),
			}
		}
	}
}

// pendingUnderrun reports underruns the device saw since the last Write.
func (s *Sink) pendingUnderrun() error {
	total := s.stream.underruns.Load()
	prev := s.reported.Swap(total)
	if total == prev {
		return nil
	}
	s.logger.Debug("live output underrun", "count", total-prev, "total", total)
	return &sink.Error{
		Kind: sink.KindUnderrun,
		Op:   "write",
		Err:  fmt.Errorf("%d device pulls found no audio", total-prev),
	}
}

// Stats returns the sink counters.
func (s *Sink) Stats() Stats {
	return Stats{
		Underruns:     s.stream.underruns.Load(),
		Dropped:       s.dropped.Load(),
		PlayedFrames:  s.stream.played.Load(),
		SilenceFrames: s.stream.silence.Load(),
		QueuedBlocks:  len(s.queue),
	}
}

// Close waits for queued audio to play out, bounded by its real-time
// length plus one device buffer and WriteTimeout, then releases the device.
func (s *Sink) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		s.stream.finish()

		queued := len(s.queue) * int(s.lastFrames.Load())
		wait := s.opts.Rate.D(queued) + s.opts.BufferDuration + s.opts.WriteTimeout
		select {
		case <-s.stream.done:
		case <-time.After(wait):
			s.logger.Warn("live output did not drain", "queued", len(s.queue))
		}
		err = s.closeDevice("close")
	})
	return err
}

// Abort stops playback immediately, discarding queued audio.
func (s *Sink) Abort() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		for len(s.queue) > 0 {
			<-s.queue
		}
		s.stream.finish()
		err = s.closeDevice("abort")
	})
	return err
}

func (s *Sink) closeDevice(op string) error {
	st := s.Stats()
	s.logger.Debug("live output stopped",
		"played_frames", st.PlayedFrames, "underruns", st.Underruns, "dropped", st.Dropped)
	if err := s.opts.Device.Close(); err != nil {
		return &sink.Error{Kind: sink.KindDeviceLost, Op: op, Err: err}
	}
	return nil
}

// Counters implements sink.Reporter.
func (s *Sink) Counters() sink.Counters {
	return sink.Counters{
		Underruns: s.stream.underruns.Load(),
		Dropped:   s.dropped.Load(),
	}
}
