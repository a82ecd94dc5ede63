// SPDX-License-Identifier: EPL-2.0

package monitor

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ik5/symphoxy/clock"
)

func sqrtMean(sq float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Sqrt(sq / float64(n))
}

// Decibels converts a linear level to dBFS, flooring at -96.
func Decibels(v float64) float64 {
	if v <= 0 {
		return -96
	}
	return max(20*math.Log10(v), -96)
}

// Meter accumulates readings for display. Peak hold decays by HoldDecay
// per reading.
type Meter struct {
	Last      Summary
	Hold      float64
	HoldDecay float64
	Clipped   int
	Readings  int
}

// Update folds s into the meter.
func (m *Meter) Update(s Summary) {
	decay := m.HoldDecay
	if decay == 0 {
		decay = 0.95
	}
	m.Hold = max(m.Hold*decay, s.Peak)
	m.Clipped += s.Clipped
	m.Last = s
	m.Readings++
}

// Bar renders v in [0, 1] as a bar of width cells.
func Bar(v float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(math.Round(min(max(v, 0), 1) * float64(width)))
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}

// Position formats the end of the last reading as minutes, seconds and
// milliseconds.
func Position(end clock.Index, rate clock.SampleRate) string {
	if rate <= 0 {
		return "--:--.---"
	}
	sec := int64(end) / int64(rate)
	rem := int64(end) % int64(rate)
	d := time.Duration(sec)*time.Second + rate.D(int(rem))
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%02d:%02d.%03d", m, s, d/time.Millisecond)
}
