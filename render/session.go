// SPDX-License-Identifier: EPL-2.0

package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ik5/symphoxy/audio"
	"github.com/ik5/symphoxy/clock"
	"github.com/ik5/symphoxy/event"
	"github.com/ik5/symphoxy/graph"
	"github.com/ik5/symphoxy/sink"
	"github.com/ik5/symphoxy/voice"
)

var (
	ErrNoTemplate   = errors.New("session needs a graph template")
	ErrNoSink       = errors.New("session needs a sink")
	ErrRunning      = errors.New("session is already running")
	ErrFinished     = errors.New("session already finished")
	ErrInvalidFrame = errors.New("block must hold at least one frame")
)

// Session parameters addressed by ParamChange events. They affect the
// whole session rather than a voice.
const (
	ParamPitchBend  = "pitch_bend" // semitones
	ParamModulation = "modulation" // 0..1
	ParamMasterGain = "master_gain"
)

// Stats are the session counters.
type Stats struct {
	Position clock.Index
	Blocks   uint64
	Frames   uint64
	Events   uint64 // events applied

	Scheduled   uint64
	Rejected    uint64
	LateClamped uint64

	VoicesStarted   uint64
	VoicesStolen    uint64
	VoicesReclaimed uint64
	NotesDropped    uint64
	ActiveVoices    int

	Clamped   uint64 // sanitised samples
	Underruns uint64
	Dropped   uint64 // blocks dropped by the sink
}

// Session renders one stream. RenderBlock and Run must be called from a
// single goroutine; Schedule, Stats, Pause, Resume and Stop may be called
// from any goroutine.
type Session struct {
	cfg    Config
	logger *slog.Logger
	out    sink.Sink

	// mu guards the clock, the scheduler, the session parameters and the
	// counters against callers outside the render goroutine.
	mu    sync.Mutex
	clock *clock.Clock
	sched *event.Scheduler
	pool  *voice.Pool
	ctx   graph.Context
	gain  float64
	stats Stats

	masterClamped uint64

	mono []float64
	buf  []float64
	due  []event.Event

	running  atomic.Bool
	finished atomic.Bool
	stop     atomic.Bool
	paused   atomic.Bool
	wake     chan struct{}
}

// NewSession validates cfg and prepares a session rendering tmpl into
// out. Nothing is rendered or written until RenderBlock or Run.
func NewSession(cfg Config, tmpl *graph.Template, out sink.Sink) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, ErrNoTemplate
	}
	if out == nil {
		return nil, ErrNoSink
	}

	c, err := clock.New(cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	pool, err := voice.NewPool(tmpl, voice.Options{
		Size:       cfg.Voices,
		Threshold:  cfg.SilenceThreshold,
		Holdoff:    cfg.SilenceHoldoff,
		Steal:      cfg.Steal,
		Transition: cfg.Transition,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		cfg:    cfg,
		logger: logger,
		out:    out,
		clock:  c,
		sched:  event.NewScheduler(c, cfg.LatePolicy),
		pool:   pool,
		ctx:    graph.Context{Rate: cfg.SampleRate},
		gain:   cfg.MasterGain,
		mono:   make([]float64, cfg.BlockSize),
		buf:    make([]float64, cfg.BlockSize*cfg.Channels),
		wake:   make(chan struct{}, 1),
	}, nil
}

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

// Now returns the index of the next sample to render.
func (s *Session) Now() clock.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Now()
}

// Schedule queues ev. Events behind the clock are rejected with
// event.ErrPastDeadline or clamped, following Config.LatePolicy.
func (s *Session) Schedule(ev event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched.Schedule(ev)
}

// ScheduleAll queues evs, stopping at the first error.
func (s *Session) ScheduleAll(evs []event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched.ScheduleAll(evs)
}

// RenderBlock renders the next n frames and writes them to the sink. The
// returned block is only valid until the next call. Recoverable sink
// errors are counted and do not fail the call.
func (s *Session) RenderBlock(n int) (audio.Block, error) {
	if n < 1 {
		return audio.Block{}, fmt.Errorf("%w: %d", ErrInvalidFrame, n)
	}
	if s.finished.Load() {
		return audio.Block{}, ErrFinished
	}

	s.mu.Lock()
	blk := s.mix(n)
	s.mu.Unlock()

	err := s.out.Write(blk)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Blocks++
	s.stats.Frames += uint64(n)
	if r, ok := s.out.(sink.Reporter); ok {
		s.stats.Dropped = r.Counters().Dropped
	}
	switch {
	case err == nil:
	case sink.IsRecoverable(err):
		s.stats.Underruns++
		s.logger.Debug("sink underrun", "at", blk.Start, "error", err)
	default:
		return blk, fmt.Errorf("write block at %d: %w", blk.Start, err)
	}
	return blk, nil
}

// mix renders n frames into the session buffer and advances the clock.
// The caller holds s.mu.
func (s *Session) mix(n int) audio.Block {
	if cap(s.mono) < n {
		s.mono = make([]float64, n)
		s.buf = make([]float64, n*s.cfg.Channels)
	}
	mono := s.mono[:n]
	clear(mono)

	start := s.clock.Now()
	end := start + clock.Index(n)
	clampedBefore := s.stats.Clamped

	if s.cfg.Timing == TimingBlock {
		s.due = s.sched.DrainDueInto(s.due[:0], end-1)
		s.apply(s.due, start)
		s.ctx.Now = start
		s.pool.Render(s.ctx, mono)
		scale(mono, s.gain)
	} else {
		for pos := start; pos < end; {
			s.due = s.sched.DrainDueInto(s.due[:0], pos)
			s.apply(s.due, pos)

			next := end
			if at, ok := s.sched.Next(); ok && at < end {
				next = at
			}
			s.ctx.Now = pos
			span := mono[pos-start : next-start]
			s.pool.Render(s.ctx, span)
			scale(span, s.gain)
			pos = next
		}
	}
	clear(s.due)

	for i, v := range mono {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
			s.masterClamped++
		}
		mono[i] = v
	}

	out := s.buf[:n*s.cfg.Channels]
	// Lengths match by construction.
	_ = audio.Interleave(out, mono, s.cfg.Channels)

	s.clock.Advance(n)
	s.syncStats()
	if clamped := s.stats.Clamped - clampedBefore; clamped > 0 {
		s.logger.Warn("clamped non-finite or runaway samples",
			"block_start", start, "samples", clamped)
	}

	return audio.Block{Start: start, Frames: n, Channels: s.cfg.Channels, Samples: out}
}

func scale(dst []float64, gain float64) {
	if gain == 1 {
		return
	}
	for i := range dst {
		dst[i] *= gain
	}
}

// apply executes due events at sample at.
func (s *Session) apply(evs []event.Event, at clock.Index) {
	for _, ev := range evs {
		s.stats.Events++
		switch ev.Kind {
		case event.NoteOn:
			if ev.Velocity == 0 {
				s.pool.NoteOff(ev.Note, at)
				continue
			}
			if _, ok := s.pool.NoteOn(ev.Note, ev.Velocity, at); !ok {
				s.logger.Debug("note dropped, no free voice", "note", ev.Note, "at", at)
			}

		case event.NoteOff:
			s.pool.NoteOff(ev.Note, at)

		case event.ParamChange:
			s.setParam(ev, at)
		}
	}
}

func (s *Session) setParam(ev event.Event, at clock.Index) {
	switch ev.Param {
	case ParamPitchBend:
		s.ctx.PitchBend = ev.Value
	case ParamModulation:
		s.ctx.Modulation = min(max(ev.Value, 0), 1)
	case ParamMasterGain:
		s.gain = min(max(ev.Value, 0), 4)
	default:
		if !s.pool.SetParam(ev.Note, ev.Param, ev.Value) {
			s.logger.Debug("parameter not accepted", "param", ev.Param, "note", ev.Note, "at", at)
		}
	}
}

// syncStats copies the pool and scheduler counters. The caller holds s.mu.
func (s *Session) syncStats() {
	ps := s.pool.Stats()
	ss := s.sched.Stats()
	s.stats.Position = s.clock.Now()
	s.stats.Scheduled = ss.Scheduled
	s.stats.Rejected = ss.Rejected
	s.stats.LateClamped = ss.Clamped
	s.stats.VoicesStarted = ps.Started
	s.stats.VoicesStolen = ps.Stolen
	s.stats.VoicesReclaimed = ps.Reclaimed
	s.stats.NotesDropped = ps.Dropped
	s.stats.ActiveVoices = ps.Active
	s.stats.Clamped = s.masterClamped + ps.Clamped
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Idle reports whether nothing is left to render: no pending events and
// no sounding voice.
func (s *Session) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched.Len() == 0 && s.pool.Len() == 0
}

// Pause holds Run before its next block.
func (s *Session) Pause() { s.paused.Store(true) }

// Resume releases a paused Run.
func (s *Session) Resume() {
	s.paused.Store(false)
	s.signal()
}

// Paused reports whether the session is paused.
func (s *Session) Paused() bool { return s.paused.Load() }

// Stop makes Run return after the block in progress.
func (s *Session) Stop() {
	s.stop.Store(true)
	s.signal()
}

func (s *Session) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run renders blocks until the input is exhausted, Stop is called, ctx
// is done, Config.MaxDuration is reached or the sink fails. The sink is
// closed on every exit except a fatal sink error, which aborts it.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer s.running.Store(false)
	if s.finished.Load() {
		return ErrFinished
	}

	limit := clock.Index(s.cfg.SampleRate.N(s.cfg.MaxDuration))
	s.logger.Debug("render started",
		"rate", int(s.cfg.SampleRate), "block", s.cfg.BlockSize,
		"channels", s.cfg.Channels, "timing", s.cfg.Timing.String())

	runErr := s.loop(ctx, limit)
	s.finished.Store(true)

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		if err := sink.Abort(s.out); err != nil {
			s.logger.Debug("sink abort failed", "error", err)
		}
		s.logger.Error("render failed", "error", runErr)
		return fmt.Errorf("render: %w", runErr)
	}

	if err := s.out.Close(); err != nil {
		return fmt.Errorf("render: close sink: %w", err)
	}
	st := s.Stats()
	s.logger.Debug("render finished",
		"frames", st.Frames, "blocks", st.Blocks, "events", st.Events,
		"underruns", st.Underruns, "clamped", st.Clamped)
	if runErr != nil {
		return fmt.Errorf("render: %w", runErr)
	}
	return nil
}

func (s *Session) loop(ctx context.Context, limit clock.Index) error {
	for {
		if err := s.waitWhilePaused(ctx); err != nil {
			return err
		}
		if s.stop.Load() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		n := s.cfg.BlockSize
		if limit > 0 {
			left := limit - s.Now()
			if left <= 0 {
				return nil
			}
			n = int(min(clock.Index(n), left))
		}
		if s.Idle() {
			return nil
		}

		if _, err := s.RenderBlock(n); err != nil {
			return err
		}
	}
}

func (s *Session) waitWhilePaused(ctx context.Context) error {
	for s.paused.Load() && !s.stop.Load() {
		select {
		case <-s.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
