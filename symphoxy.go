// SPDX-License-Identifier: EPL-2.0

package symphoxy

import (
	"context"
	"io"

	"github.com/ik5/symphoxy/patch"
	"github.com/ik5/symphoxy/render"
	"github.com/ik5/symphoxy/score"
	"github.com/ik5/symphoxy/sink/wavsink"
)

// DefaultInstrument plays scores that name no instrument.
const DefaultInstrument = "piano"

// RenderWAV renders sc with its instrument through cfg and writes a WAV
// file of the given bit depth (16 or 24) to w. Rendering ends when the
// last voice falls silent or cfg.MaxDuration is reached.
//
// Example:
//
//	f, _ := os.Create("song.wav")
//	defer f.Close()
//	stats, err := symphoxy.RenderWAV(ctx, f, sc, render.DefaultConfig(), 24)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(stats.Frames)
func RenderWAV(ctx context.Context, w io.Writer, sc *score.Score, cfg render.Config, bits int) (render.Stats, error) {
	name := sc.Instrument
	if name == "" {
		name = DefaultInstrument
	}
	f, err := patch.Lookup(name)
	if err != nil {
		return render.Stats{}, err
	}
	tmpl, err := f(patch.DefaultADSR(cfg.SampleRate))
	if err != nil {
		return render.Stats{}, err
	}

	out, err := wavsink.New(w, wavsink.Options{Rate: cfg.SampleRate, Channels: cfg.Channels, BitDepth: bits})
	if err != nil {
		return render.Stats{}, err
	}
	s, err := render.NewSession(cfg, tmpl, out)
	if err != nil {
		return render.Stats{}, err
	}
	if err := s.ScheduleAll(sc.Events(cfg.SampleRate)); err != nil {
		return render.Stats{}, err
	}

	err = s.Run(ctx)
	return s.Stats(), err
}
