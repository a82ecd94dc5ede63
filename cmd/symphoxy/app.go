// SPDX-License-Identifier: EPL-2.0

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ik5/symphoxy/asset"
	"github.com/ik5/symphoxy/clock"
	"github.com/ik5/symphoxy/event"
	"github.com/ik5/symphoxy/graph"
	"github.com/ik5/symphoxy/patch"
	"github.com/ik5/symphoxy/render"
	"github.com/ik5/symphoxy/score"
	"github.com/ik5/symphoxy/sink"
	"github.com/ik5/symphoxy/voice"
)

// options are the parsed command line flags.
type options struct {
	score      string
	mode       string
	out        string
	instrument string
	sample     string
	root       float64
	bits       int
	bpm        float64
	transpose  int

	rate      int
	block     int
	channels  int
	voices    int
	accurate  bool
	late      string
	steal     string
	threshold float64
	holdoff   int
	volume    int
	duration  time.Duration

	debug bool

	set map[string]bool // flags given explicitly
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("symphoxy", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.score, "score", "", "JSON score to play (built-in demo when empty)")
	fs.StringVar(&o.mode, "mode", "", "output mode: "+modeNames()+" (interactive when empty)")
	fs.StringVar(&o.out, "out", "out.wav", "WAV output path")
	fs.StringVar(&o.instrument, "instrument", "", "patch name, overrides the score: "+strings.Join(patch.Names(), ", "))
	fs.StringVar(&o.sample, "sample", "", "audio file to play as a sampler (wav, aiff, mp3, ogg)")
	fs.Float64Var(&o.root, "root", 261.6255653005986, "pitch in Hz the sample was recorded at")
	fs.IntVar(&o.bits, "bits", 16, "WAV bit depth (16 or 24)")
	fs.Float64Var(&o.bpm, "bpm", 0, "tempo override in BPM (20-400)")
	fs.IntVar(&o.transpose, "transpose", 0, "transpose the score by semitones")

	fs.IntVar(&o.rate, "rate", 0, "sample rate in Hz")
	fs.IntVar(&o.block, "block", 0, "frames per render block")
	fs.IntVar(&o.channels, "channels", 0, "output channels (1 or 2)")
	fs.IntVar(&o.voices, "voices", 0, "polyphony")
	fs.BoolVar(&o.accurate, "accurate", true, "sample-accurate event timing; false quantizes to blocks")
	fs.StringVar(&o.late, "late", "", "late event policy: reject or clamp")
	fs.StringVar(&o.steal, "steal", "", "voice stealing: oldest, quietest or none")
	fs.Float64Var(&o.threshold, "threshold", 0, "silence threshold for voice reclamation")
	fs.IntVar(&o.holdoff, "holdoff", 0, "samples a finished voice keeps rendering")
	fs.IntVar(&o.volume, "volume", 0, "master volume 0-100")
	fs.DurationVar(&o.duration, "duration", 0, "stop after this much audio")

	fs.BoolVar(&o.debug, "debug", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	o.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return o, nil
}

func modeNames() string {
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.name
	}
	return strings.Join(names, ", ")
}

// configure overlays explicitly given flags on cfg.
func (o options) configure(cfg render.Config) (render.Config, error) {
	if o.set["rate"] {
		cfg.SampleRate = clock.SampleRate(o.rate)
	}
	if o.set["block"] {
		cfg.BlockSize = o.block
	}
	if o.set["channels"] {
		cfg.Channels = o.channels
	}
	if o.set["voices"] {
		cfg.Voices = o.voices
	}
	if o.set["accurate"] {
		cfg.Timing = render.TimingBlock
		if o.accurate {
			cfg.Timing = render.TimingSampleAccurate
		}
	}
	if o.set["late"] {
		switch strings.ToLower(o.late) {
		case "reject":
			cfg.LatePolicy = event.LateReject
		case "clamp":
			cfg.LatePolicy = event.LateClamp
		default:
			return cfg, fmt.Errorf("-late: unknown policy %q", o.late)
		}
	}
	if o.set["steal"] {
		p, ok := voice.ParseStealPolicy(strings.ToLower(o.steal))
		if !ok {
			return cfg, fmt.Errorf("-steal: unknown policy %q", o.steal)
		}
		cfg.Steal = p
	}
	if o.set["threshold"] {
		cfg.SilenceThreshold = o.threshold
	}
	if o.set["holdoff"] {
		cfg.SilenceHoldoff = o.holdoff
	}
	if o.set["volume"] {
		cfg.MasterGain = float64(min(max(o.volume, 0), 100)) / 100
	}
	if o.set["duration"] {
		cfg.MaxDuration = o.duration
	}
	return cfg, cfg.Validate()
}

// app is everything a backend needs for one run.
type app struct {
	opts  options
	cfg   render.Config
	score *score.Score
	tmpl  *graph.Template
	name  string
}

func newApp(o options) (*app, error) {
	cfg := render.LoadConfigFromEnv(render.DefaultConfig())
	cfg, err := o.configure(cfg)
	if err != nil {
		return nil, err
	}
	cfg.Logger = logger

	sc, err := loadScore(o.score)
	if err != nil {
		return nil, err
	}
	if o.set["bpm"] {
		if !score.ValidBPM(o.bpm) {
			return nil, fmt.Errorf("-bpm: %w: got %v", score.ErrInvalidBPM, o.bpm)
		}
		sc.BPM = o.bpm
	}
	if o.transpose != 0 {
		sc.Transpose(o.transpose)
	}

	a := &app{opts: o, cfg: cfg, score: sc}
	if err := a.instrument(); err != nil {
		return nil, err
	}
	if o.bits != 16 && o.bits != 24 {
		return nil, fmt.Errorf("-bits: %d, want 16 or 24", o.bits)
	}
	return a, nil
}

func loadScore(path string) (*score.Score, error) {
	if path == "" {
		return score.Parse(strings.NewReader(demoScore))
	}
	return score.ParseFile(path)
}

// instrument resolves the template: a sample file, the -instrument flag,
// the score's instrument, then piano.
func (a *app) instrument() error {
	env := patch.DefaultADSR(a.cfg.SampleRate)

	if a.opts.sample != "" {
		buf, err := asset.Load(a.opts.sample, a.cfg.SampleRate)
		if err != nil {
			return fmt.Errorf("sample: %w", err)
		}
		logger.Debug("sample loaded",
			"path", a.opts.sample, "frames", len(buf.Data),
			"source_rate", buf.SourceRate, "source_channels", buf.SourceChannels)
		a.tmpl, err = patch.Sampler(*buf, a.opts.root, env)
		a.name = "sampler"
		return err
	}

	name := a.opts.instrument
	if name == "" {
		name = a.score.Instrument
	}
	if name == "" {
		name = "piano"
	}
	f, err := patch.Lookup(name)
	if err != nil {
		return err
	}
	a.tmpl, err = f(env)
	a.name = strings.ToLower(name)
	return err
}

// session prepares a fresh session writing to out with the score queued.
func (a *app) session(out sink.Sink) (*render.Session, error) {
	s, err := render.NewSession(a.cfg, a.tmpl, out)
	if err != nil {
		return nil, err
	}
	if err := s.ScheduleAll(a.score.Events(a.cfg.SampleRate)); err != nil {
		return nil, err
	}
	logger.Debug("session ready",
		"instrument", a.name, "bpm", a.score.BPM, "notes", len(a.score.Notes),
		"rate", int(a.cfg.SampleRate), "timing", a.cfg.Timing.String())
	return s, nil
}

func (a *app) title() string {
	return fmt.Sprintf("symphoxy  %s  %g bpm", a.name, a.score.BPM)
}
