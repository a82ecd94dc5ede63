// SPDX-License-Identifier: EPL-2.0

//go:build !notui && !nolive

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/ik5/symphoxy/sink/monitor"
)

func init() {
	register(backend{
		name:        "tui",
		label:       "Monitor",
		description: "Play music live with a level meter",
		order:       2,
		run:         runTUI,
	})
}

func runTUI(ctx context.Context, a *app) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}

	out, err := openLive(a)
	if err != nil {
		return err
	}
	mon := monitor.New(out, monitor.Options{Every: 2})
	s, err := a.session(mon)
	if err != nil {
		_ = mon.Abort()
		return err
	}

	ui := monitor.NewUI(screen, s, a.cfg.SampleRate, a.title())
	ui.Watch(mon)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	uiErr := ui.Run(ctx, mon.Summaries())
	if uiErr != nil {
		s.Stop()
	}
	runErr := <-done

	st := s.Stats()
	logger.Info("playback finished",
		"frames", st.Frames, "underruns", st.Underruns, "dropped", st.Dropped,
		"clipped", ui.Meter().Clipped)
	return errors.Join(uiErr, runErr)
}
