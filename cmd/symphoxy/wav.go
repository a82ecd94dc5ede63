// SPDX-License-Identifier: EPL-2.0

//go:build !nowav

package main

import (
	"context"

	"github.com/ik5/symphoxy/sink/wavsink"
)

func init() {
	register(backend{
		name:        "wav",
		label:       "Write",
		description: "Render music to a WAV file",
		order:       1,
		needsPath:   true,
		run:         runWAV,
	})
}

func runWAV(ctx context.Context, a *app) error {
	out, err := wavsink.Create(a.opts.out, wavsink.Options{
		Rate:     a.cfg.SampleRate,
		Channels: a.cfg.Channels,
		BitDepth: a.opts.bits,
	})
	if err != nil {
		return err
	}

	s, err := a.session(out)
	if err != nil {
		// Nothing was rendered; drop the partial file.
		_ = out.Abort()
		return err
	}
	if err := s.Run(ctx); err != nil {
		return err
	}

	st := s.Stats()
	logger.Info("wrote wav file",
		"path", a.opts.out, "frames", st.Frames,
		"seconds", float64(st.Frames)/float64(a.cfg.SampleRate), "bits", out.Options().BitDepth)
	return nil
}
