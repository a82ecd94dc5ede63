// SPDX-License-Identifier: EPL-2.0

//go:build !nolive

package main

import (
	"context"

	"github.com/ik5/symphoxy/sink/live"
)

func init() {
	register(backend{
		name:        "live",
		label:       "Play",
		description: "Play music live",
		order:       0,
		run:         runLive,
	})
}

func openLive(a *app) (*live.Sink, error) {
	return live.New(live.Options{
		Rate:     a.cfg.SampleRate,
		Channels: a.cfg.Channels,
		Logger:   logger,
	})
}

func runLive(ctx context.Context, a *app) error {
	out, err := openLive(a)
	if err != nil {
		return err
	}
	s, err := a.session(out)
	if err != nil {
		_ = out.Abort()
		return err
	}
	if err := s.Run(ctx); err != nil {
		return err
	}

	st := s.Stats()
	logger.Info("playback finished",
		"frames", st.Frames, "underruns", st.Underruns, "dropped", st.Dropped)
	return nil
}
