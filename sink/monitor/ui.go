// SPDX-License-Identifier: EPL-2.0

package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ik5/symphoxy/clock"
)

// Controller is the part of a session the UI drives.
type Controller interface {
	Pause()
	Resume()
	Paused() bool
	Stop()
}

// UI draws a level meter on a tcell screen.
type UI struct {
	screen tcell.Screen
	ctrl   Controller
	rate   clock.SampleRate
	title  string

	meter   Meter
	dropped func() uint64
}

// NewUI returns a UI for screen. The screen is initialised by Run and
// finalised when Run returns. ctrl may be nil.
func NewUI(screen tcell.Screen, ctrl Controller, rate clock.SampleRate, title string) *UI {
	return &UI{screen: screen, ctrl: ctrl, rate: rate, title: title}
}

// Watch makes the footer show the drop counter of m.
func (u *UI) Watch(m *Monitor) { u.dropped = m.Dropped }

// Meter returns the accumulated readings.
func (u *UI) Meter() Meter { return u.meter }

// Run draws readings from summaries until the channel closes, ctx is done
// or the user quits. Quitting stops the controller.
func (u *UI) Run(ctx context.Context, summaries <-chan Summary) error {
	if err := u.screen.Init(); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}
	defer u.screen.Fini()
	u.screen.Clear()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	u.draw()
	for {
		select {
		case <-ctx.Done():
			return nil

		case s, ok := <-summaries:
			if !ok {
				u.draw()
				return nil
			}
			u.meter.Update(s)

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !u.handleKey(ev.Key(), ev.Rune()) {
					return nil
				}
			case *tcell.EventResize:
				u.screen.Sync()
			}

		case <-ticker.C:
			u.draw()
		}
	}
}

// handleKey applies a key press and reports whether the UI keeps running.
func (u *UI) handleKey(key tcell.Key, r rune) bool {
	switch {
	case key == tcell.KeyEscape || key == tcell.KeyCtrlC || (key == tcell.KeyRune && r == 'q'):
		if u.ctrl != nil {
			u.ctrl.Stop()
		}
		return false

	case key == tcell.KeyRune && r == ' ':
		if u.ctrl == nil {
			return true
		}
		if u.ctrl.Paused() {
			u.ctrl.Resume()
		} else {
			u.ctrl.Pause()
		}
	}
	return true
}

func (u *UI) state() string {
	if u.ctrl != nil && u.ctrl.Paused() {
		return "paused"
	}
	return "playing"
}

// lines returns the text rows of the display for a screen width.
func (u *UI) lines(width int) []string {
	barWidth := max(width-16, 10)
	last := u.meter.Last
	out := []string{
		fmt.Sprintf("%s  [%s]", u.title, u.state()),
		fmt.Sprintf("time  %s  frames %d", Position(last.End(), u.rate), last.End()),
		fmt.Sprintf("peak %6.1f %s", Decibels(last.Peak), Bar(last.Peak, barWidth)),
		fmt.Sprintf("rms  %6.1f %s", Decibels(last.RMS), Bar(last.RMS, barWidth)),
		fmt.Sprintf("hold %6.1f dBFS  clipped %d", Decibels(u.meter.Hold), u.meter.Clipped),
	}
	footer := "space pause/resume  q quit"
	if u.dropped != nil {
		footer += fmt.Sprintf("  dropped %d", u.dropped())
	}
	return append(out, "", footer)
}

func (u *UI) draw() {
	u.screen.Clear()
	width, height := u.screen.Size()

	style := tcell.StyleDefault
	for y, line := range u.lines(width) {
		if y >= height {
			break
		}
		switch {
		case y == 0:
			style = tcell.StyleDefault.Bold(true)
		case y == 2 && u.meter.Last.Peak > 1:
			style = tcell.StyleDefault.Foreground(tcell.ColorRed)
		case y == 2 || y == 3:
			style = tcell.StyleDefault.Foreground(tcell.ColorGreen)
		default:
			style = tcell.StyleDefault
		}
		x := 0
		for _, r := range line {
			if x >= width {
				break
			}
			u.screen.SetContent(x, y, r, nil, style)
			x++
		}
	}
	u.screen.Show()
}
