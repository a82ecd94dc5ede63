// SPDX-License-Identifier: EPL-2.0

package render

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/ik5/symphoxy/clock"
	"github.com/ik5/symphoxy/event"
	"github.com/ik5/symphoxy/graph"
	"github.com/ik5/symphoxy/internal/audiotest"
	"github.com/ik5/symphoxy/sink"
	"github.com/ik5/symphoxy/sink/wavsink"
	"github.com/ik5/symphoxy/voice"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// gated is a constant 1 through an envelope that reaches sustain three
// samples after note on and finishes one sample after note off.
func gated(t testing.TB) *graph.Template {
	t.Helper()
	b := graph.NewBuilder()
	one := b.Add("one", &graph.Constant{Value: 1})
	env := b.Add("env", &graph.Envelope{ADSR: graph.ADSR{Attack: 2, Decay: 2, Sustain: 0.5, Release: 2}}, one)
	out := b.Add("out", &graph.Gain{Gain: 1}, env)
	tmpl, err := b.Build(out)
	if err != nil {
		t.Fatalf("Build() = %v, want nil", err)
	}
	return tmpl
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleRate = 1000
	cfg.BlockSize = 64
	cfg.Channels = 1
	cfg.SilenceHoldoff = 0
	cfg.MasterGain = 1
	cfg.Logger = quiet()
	return cfg
}

func newSession(t testing.TB, cfg Config, out sink.Sink) *Session {
	t.Helper()
	s, err := NewSession(cfg, gated(t), out)
	if err != nil {
		t.Fatalf("NewSession() = %v, want nil", err)
	}
	return s
}

func note(on, off clock.Index, n int) []event.Event {
	return []event.Event{
		{At: on, Kind: event.NoteOn, Note: n, Velocity: 1},
		{At: off, Kind: event.NoteOff, Note: n},
	}
}

func TestNewSession_Errors(t *testing.T) {
	t.Parallel()

	bad := testConfig()
	bad.BlockSize = 0

	tests := []struct {
		name string
		cfg  Config
		tmpl *graph.Template
		out  sink.Sink
		want error
	}{
		{"config", bad, gated(t), &audiotest.Recorder{}, ErrInvalidConfig},
		{"template", testConfig(), nil, &audiotest.Recorder{}, ErrNoTemplate},
		{"sink", testConfig(), gated(t), nil, ErrNoSink},
	}
	for _, tt := range tests {
		if _, err := NewSession(tt.cfg, tt.tmpl, tt.out); !errors.Is(err, tt.want) {
			t.Errorf("%s: NewSession() = %v, want %v", tt.name, err, tt.want)
		}
		if rec, ok := tt.out.(*audiotest.Recorder); ok && len(rec.Blocks) != 0 {
			t.Errorf("%s: %d blocks written", tt.name, len(rec.Blocks))
		}
	}
}

func TestCycle_NoRender(t *testing.T) {
	t.Parallel()

	b := graph.NewBuilder()
	a := b.Add("a", &graph.Gain{Gain: 1})
	c := b.Add("c", &graph.Gain{Gain: 1}, a)
	b.Connect(a, c)
	tmpl, err := b.Build(c)
	if !errors.Is(err, graph.ErrCycle) {
		t.Fatalf("Build() = %v, want %v", err, graph.ErrCycle)
	}

	rec := &audiotest.Recorder{}
	if _, err := NewSession(testConfig(), tmpl, rec); err == nil {
		t.Fatal("NewSession() with no template = nil, want error")
	}
	if len(rec.Blocks) != 0 || rec.Closed {
		t.Errorf("sink touched: %d blocks, closed=%v", len(rec.Blocks), rec.Closed)
	}
}

func TestRenderBlock_ClockExact(t *testing.T) {
	t.Parallel()

	rec := &audiotest.Recorder{}
	s := newSession(t, testConfig(), rec)

	var total clock.Index
	for _, n := range []int{1, 64, 7, 300, 64} {
		blk, err := s.RenderBlock(n)
		if err != nil {
			t.Fatalf("RenderBlock(%d) = %v", n, err)
		}
		if blk.Start != total || blk.Frames != n || len(blk.Samples) != n {
			t.Errorf("RenderBlock(%d) = start %d frames %d len %d, want start %d", n, blk.Start, blk.Frames, len(blk.Samples), total)
		}
		total += clock.Index(n)
		if s.Now() != total {
			t.Errorf("Now() = %d, want %d", s.Now(), total)
		}
	}
	if got := rec.Frames(); got != int(total) {
		t.Errorf("sink frames = %d, want %d", got, total)
	}
	if _, err := s.RenderBlock(0); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("RenderBlock(0) = %v, want %v", err, ErrInvalidFrame)
	}
}

func TestTransitions(t *testing.T) {
	t.Parallel()

	stages := func(at ...clock.Index) []voice.Transition {
		to := []graph.Stage{graph.StageAttack, graph.StageDecay, graph.StageSustain, graph.StageRelease, graph.StageDone, graph.StageIdle}
		from := []graph.Stage{graph.StageIdle, graph.StageAttack, graph.StageDecay, graph.StageSustain, graph.StageRelease, graph.StageDone}
		out := make([]voice.Transition, len(at))
		for i := range at {
			out[i] = voice.Transition{Voice: 0, Note: 60, From: from[i], To: to[i], At: at[i]}
		}
		return out
	}

	tests := []struct {
		name    string
		timing  Timing
		on, off clock.Index
		frames  uint64
		want    []voice.Transition
	}{
		{"sample accurate", TimingSampleAccurate, 100, 300, 320, stages(100, 101, 103, 300, 301, 301)},
		{"block", TimingBlock, 100, 300, 320, stages(64, 65, 67, 256, 257, 257)},
		{"sample accurate aligned", TimingSampleAccurate, 128, 320, 384, stages(128, 129, 131, 320, 321, 321)},
		{"block aligned", TimingBlock, 128, 320, 384, stages(128, 129, 131, 320, 321, 321)},
	}
	for _, tt := range tests {
		var got []voice.Transition
		cfg := testConfig()
		cfg.Timing = tt.timing
		cfg.Transition = func(tr voice.Transition) { got = append(got, tr) }

		rec := &audiotest.Recorder{}
		s := newSession(t, cfg, rec)
		if err := s.ScheduleAll(note(tt.on, tt.off, 60)); err != nil {
			t.Fatalf("%s: ScheduleAll() = %v", tt.name, err)
		}
		if err := s.Run(context.Background()); err != nil {
			t.Fatalf("%s: Run() = %v", tt.name, err)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("%s: transitions\n got %v\nwant %v", tt.name, got, tt.want)
		}
		if st := s.Stats(); st.Frames != tt.frames || st.Events != 2 || st.VoicesReclaimed != 1 {
			t.Errorf("%s: Stats() = %+v", tt.name, st)
		}
		if !rec.Closed {
			t.Errorf("%s: sink not closed", tt.name)
		}
	}
}

func TestSampleAccurate_FirstSample(t *testing.T) {
	t.Parallel()

	rec := &audiotest.Recorder{}
	s := newSession(t, testConfig(), rec)
	s.Schedule(event.Event{At: 100, Kind: event.NoteOn, Note: 60, Velocity: 1})
	if _, err := s.RenderBlock(128); err != nil {
		t.Fatalf("RenderBlock() = %v", err)
	}

	out := rec.Samples()
	if out[99] != 0 || out[100] != 0.5 || out[101] != 1 {
		t.Errorf("samples 99..101 = %v, want [0 0.5 1]", out[99:102])
	}
}

func TestSchedule_Late(t *testing.T) {
	t.Parallel()

	for _, policy := range []event.LatePolicy{event.LateReject, event.LateClamp} {
		var starts []clock.Index
		cfg := testConfig()
		cfg.LatePolicy = policy
		cfg.Transition = func(tr voice.Transition) {
			if tr.To == graph.StageAttack {
				starts = append(starts, tr.At)
			}
		}
		s := newSession(t, cfg, &audiotest.Recorder{})
		s.RenderBlock(128)

		err := s.Schedule(event.Event{At: 10, Kind: event.NoteOn, Note: 60, Velocity: 1})
		if policy == event.LateReject {
			var se *event.ScheduleError
			if !errors.Is(err, event.ErrPastDeadline) || !errors.As(err, &se) || se.Now != 128 {
				t.Errorf("reject: Schedule() = %v, want %v at 128", err, event.ErrPastDeadline)
			}
			s.RenderBlock(64)
			if len(starts) != 0 || s.Stats().Rejected != 1 {
				t.Errorf("reject: late note played at %v", starts)
			}
			continue
		}

		if err != nil {
			t.Errorf("clamp: Schedule() = %v, want nil", err)
		}
		s.RenderBlock(64)
		if !slices.Equal(starts, []clock.Index{128}) || s.Stats().LateClamped != 1 {
			t.Errorf("clamp: note started at %v, want [128]", starts)
		}
	}
}

func TestRun_FatalSinkError(t *testing.T) {
	t.Parallel()

	rec := &audiotest.Recorder{FailAt: 2, Err: &sink.Error{Kind: sink.KindIO, Op: "write", Err: errors.New("disk full")}}
	s := newSession(t, testConfig(), rec)
	s.ScheduleAll(note(0, 1000, 60))

	err := s.Run(context.Background())
	if !errors.Is(err, sink.ErrIO) {
		t.Fatalf("Run() = %v, want %v", err, sink.ErrIO)
	}
	var se *sink.Error
	if !errors.As(err, &se) || se.Kind != sink.KindIO {
		t.Errorf("Run() error %v does not carry the sink error", err)
	}
	if !rec.Aborted || rec.Closed {
		t.Errorf("aborted=%v closed=%v, want true, false", rec.Aborted, rec.Closed)
	}
	if _, err := s.RenderBlock(1); !errors.Is(err, ErrFinished) {
		t.Errorf("RenderBlock() after Run = %v, want %v", err, ErrFinished)
	}
}

func TestRun_UnderrunContinues(t *testing.T) {
	t.Parallel()

	underrun := &sink.Error{Kind: sink.KindUnderrun, Op: "write"}
	rec := &audiotest.Recorder{Errs: []error{nil, underrun, nil, underrun}}
	s := newSession(t, testConfig(), rec)
	s.ScheduleAll(note(0, 400, 60))

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	st := s.Stats()
	if st.Underruns != 2 || st.Frames != 448 {
		t.Errorf("Stats() = %+v, want 2 underruns over 448 frames", st)
	}
	if !rec.Closed {
		t.Error("sink not closed")
	}
}

func TestRun_MaxDuration(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxDuration = time.Second
	rec := &audiotest.Recorder{}
	s := newSession(t, cfg, rec)
	s.Schedule(event.Event{At: 0, Kind: event.NoteOn, Note: 60, Velocity: 1})

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if got := rec.Frames(); got != 1000 {
		t.Errorf("frames = %d, want 1000", got)
	}
	if last := rec.Blocks[len(rec.Blocks)-1]; last.Frames != 1000%64 {
		t.Errorf("last block frames = %d, want %d", last.Frames, 1000%64)
	}
}

func TestRun_Stop(t *testing.T) {
	t.Parallel()

	rec := &audiotest.Recorder{}
	s := newSession(t, testConfig(), rec)
	s.Schedule(event.Event{At: 0, Kind: event.NoteOn, Note: 60, Velocity: 1})
	s.Stop()

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if len(rec.Blocks) != 0 || !rec.Closed {
		t.Errorf("blocks=%d closed=%v, want 0, true", len(rec.Blocks), rec.Closed)
	}
	if err := s.Run(context.Background()); !errors.Is(err, ErrFinished) {
		t.Errorf("second Run() = %v, want %v", err, ErrFinished)
	}
}

func TestRun_Cancel(t *testing.T) {
	t.Parallel()

	rec := &audiotest.Recorder{}
	s := newSession(t, testConfig(), rec)
	s.Schedule(event.Event{At: 0, Kind: event.NoteOn, Note: 60, Velocity: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want %v", err, context.Canceled)
	}
	if !rec.Closed || rec.Aborted {
		t.Errorf("closed=%v aborted=%v, want true, false", rec.Closed, rec.Aborted)
	}
}

func TestRun_Empty(t *testing.T) {
	t.Parallel()

	rec := &audiotest.Recorder{}
	s := newSession(t, testConfig(), rec)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}
	if len(rec.Blocks) != 0 || !rec.Closed {
		t.Errorf("blocks=%d closed=%v, want 0, true", len(rec.Blocks), rec.Closed)
	}
}

func TestRun_PauseResume(t *testing.T) {
	t.Parallel()

	rec := &audiotest.Recorder{}
	s := newSession(t, testConfig(), rec)
	s.ScheduleAll(note(0, 100, 60))
	s.Pause()
	if !s.Paused() {
		t.Fatal("Paused() = false after Pause")
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	if got := s.Stats().Blocks; got != 0 {
		t.Fatalf("rendered %d blocks while paused", got)
	}
	s.Resume()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not finish after Resume")
	}
	if s.Stats().Blocks == 0 {
		t.Error("nothing rendered after Resume")
	}
}

func TestSessionParams(t *testing.T) {
	t.Parallel()

	rec := &audiotest.Recorder{}
	s := newSession(t, testConfig(), rec)
	s.ScheduleAll([]event.Event{
		{At: 0, Kind: event.NoteOn, Note: 60, Velocity: 1},
		{At: 10, Kind: event.ParamChange, Note: event.AnyNote, Param: ParamMasterGain, Value: 0.5},
		{At: 20, Kind: event.ParamChange, Note: 60, Param: "out.gain", Value: 0},
	})
	s.RenderBlock(32)

	out := rec.Samples()
	if out[9] != 0.5 || out[10] != 0.25 || out[20] != 0 {
		t.Errorf("samples 9, 10, 20 = %v %v %v, want 0.5 0.25 0", out[9], out[10], out[20])
	}
}

func TestMasterGain_TakesEffectAtItsSample(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		timing Timing
		first  int // first muted sample
	}{
		{"sample accurate", TimingSampleAccurate, 40},
		{"block", TimingBlock, 32},
	}
	for _, tt := range tests {
		cfg := testConfig()
		cfg.Timing = tt.timing
		rec := &audiotest.Recorder{}
		s := newSession(t, cfg, rec)
		s.ScheduleAll([]event.Event{
			{At: 0, Kind: event.NoteOn, Note: 60, Velocity: 1},
			{At: 40, Kind: event.ParamChange, Note: event.AnyNote, Param: ParamMasterGain, Value: 0},
		})
		s.RenderBlock(32)
		s.RenderBlock(32)

		out := rec.Samples()
		if out[10] != 0.5 || out[tt.first-1] != 0.5 {
			t.Errorf("%s: samples 10, %d = %v %v, want 0.5 0.5", tt.name, tt.first-1, out[10], out[tt.first-1])
		}
		for i := tt.first; i < 64; i++ {
			if out[i] != 0 {
				t.Errorf("%s: sample %d = %v, want 0", tt.name, i, out[i])
				break
			}
		}
	}
}

func TestNoteOnZeroVelocity(t *testing.T) {
	t.Parallel()

	var stages []graph.Stage
	cfg := testConfig()
	cfg.Transition = func(tr voice.Transition) { stages = append(stages, tr.To) }
	s := newSession(t, cfg, &audiotest.Recorder{})
	s.ScheduleAll([]event.Event{
		{At: 0, Kind: event.NoteOn, Note: 60, Velocity: 1},
		{At: 10, Kind: event.NoteOn, Note: 60, Velocity: 0},
	})
	s.RenderBlock(64)
	if !slices.Contains(stages, graph.StageRelease) {
		t.Errorf("stages %v, want a release", stages)
	}
}

type nanNode struct{}

func (nanNode) Process(*graph.Context, []float64) float64 { return math.NaN() }
func (nanNode) Clone() graph.Node                         { return nanNode{} }
func (nanNode) Reset()                                    {}

func TestClamped(t *testing.T) {
	t.Parallel()

	b := graph.NewBuilder()
	bad := b.Add("bad", nanNode{})
	env := b.Add("env", &graph.Envelope{ADSR: graph.ADSR{Sustain: 1}}, bad)
	tmpl, err := b.Build(env)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}

	rec := &audiotest.Recorder{}
	s, err := NewSession(testConfig(), tmpl, rec)
	if err != nil {
		t.Fatalf("NewSession() = %v", err)
	}
	s.Schedule(event.Event{At: 0, Kind: event.NoteOn, Note: 60, Velocity: 1})
	s.RenderBlock(16)

	for i, v := range rec.Samples() {
		if v != 0 {
			t.Fatalf("sample %d = %v, want 0", i, v)
		}
	}
	if got := s.Stats().Clamped; got != 16 {
		t.Errorf("Clamped = %d, want 16", got)
	}
}

func TestStereo(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Channels = 2
	rec := &audiotest.Recorder{}
	s := newSession(t, cfg, rec)
	s.Schedule(event.Event{At: 0, Kind: event.NoteOn, Note: 60, Velocity: 1})
	blk, _ := s.RenderBlock(4)
	if blk.Channels != 2 || len(blk.Samples) != 8 {
		t.Fatalf("block = %d channels %d samples", blk.Channels, len(blk.Samples))
	}
	for i := range 4 {
		if f := blk.Frame(i); f[0] != f[1] {
			t.Errorf("frame %d = %v, want equal channels", i, f)
		}
	}
}

func renderWAV(t *testing.T, bits int) []byte {
	t.Helper()
	cfg := testConfig()
	cfg.SampleRate = 8000
	cfg.Channels = 2

	var buf bytes.Buffer
	out, err := wavsink.New(&buf, wavsink.Options{Rate: cfg.SampleRate, Channels: 2, BitDepth: bits})
	if err != nil {
		t.Fatalf("wavsink.New() = %v", err)
	}

	b := graph.NewBuilder()
	osc := b.Add("osc", &graph.Oscillator{Wave: graph.WaveSaw})
	lp := b.Add("lp", &graph.Filter{Kind: graph.Lowpass, Cutoff: 1200}, osc)
	env := b.Add("env", &graph.Envelope{ADSR: graph.ADSR{Attack: 40, Decay: 200, Sustain: 0.6, Release: 400}}, lp)
	tmpl, err := b.Build(env)
	if err != nil {
		t.Fatalf("Build() = %v", err)
	}
	s, err := NewSession(cfg, tmpl, out)
	if err != nil {
		t.Fatalf("NewSession() = %v", err)
	}
	var evs []event.Event
	for i, n := range []int{60, 64, 67, 72} {
		evs = append(evs, note(clock.Index(i*700+3), clock.Index(i*700+1500), n)...)
	}
	if err := s.ScheduleAll(evs); err != nil {
		t.Fatalf("ScheduleAll() = %v", err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	return buf.Bytes()
}

func TestWAV_Deterministic(t *testing.T) {
	t.Parallel()

	for _, bits := range []int{16, 24} {
		a, b := renderWAV(t, bits), renderWAV(t, bits)
		if len(a) <= wavsink.HeaderSize {
			t.Fatalf("%d bit: %d bytes, want audio data", bits, len(a))
		}
		if !bytes.Equal(a, b) {
			t.Errorf("%d bit: renders differ", bits)
		}
	}
}

func TestRenderBlock_ZeroAlloc(t *testing.T) {
	cfg := testConfig()
	s := newSession(t, cfg, &sink.Discard{})
	for n := range 8 {
		s.Schedule(event.Event{At: 0, Kind: event.NoteOn, Note: 60 + n, Velocity: 0.5})
	}
	s.RenderBlock(cfg.BlockSize)

	allocs := testing.AllocsPerRun(100, func() {
		if _, err := s.RenderBlock(cfg.BlockSize); err != nil {
			t.Fatal(err)
		}
	})
	if allocs != 0 {
		t.Errorf("RenderBlock() allocated %v times per run, want 0", allocs)
	}
}

func BenchmarkRenderBlock(b *testing.B) {
	cfg := DefaultConfig()
	cfg.Logger = quiet()
	s, err := NewSession(cfg, gated(b), &sink.Discard{})
	if err != nil {
		b.Fatal(err)
	}
	for n := range 16 {
		s.Schedule(event.Event{At: 0, Kind: event.NoteOn, Note: 48 + n, Velocity: 0.5})
	}
	b.ResetTimer()
	for range b.N {
		s.RenderBlock(cfg.BlockSize)
	}
}
