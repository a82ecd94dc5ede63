// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"math"
	"testing"
)

func ramp(n int) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = float64(i) / float64(n)
	}
	return buf
}

func TestSampler_Transpose(t *testing.T) {
	t.Parallel()

	data := ramp(64)

	tests := []struct {
		name string
		hz   float64
		step int
	}{
		{name: "root plays unchanged", hz: 440, step: 1},
		{name: "octave up skips samples", hz: 880, step: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := (&Sampler{Data: data}).Clone().(*Sampler)
			s.SetFrequency(tt.hz)
			ctx := Context{Rate: 48000}
			for i := range 16 {
				want := data[i*tt.step]
				if got := s.Process(&ctx, nil); math.Abs(got-want) > 1e-12 {
					t.Fatalf("sample %d = %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestSampler_SourceRate(t *testing.T) {
	t.Parallel()

	// A 24 kHz recording played at 48 kHz advances half a sample per tick.
	s := &Sampler{Data: ramp(8), Rate: 24000, Root: 100}
	s.SetFrequency(100)
	ctx := Context{Rate: 48000}
	s.Process(&ctx, nil)
	if s.pos != 0.5 {
		t.Errorf("position after one sample = %v, want 0.5", s.pos)
	}
}

func TestSampler_OneShotAndLoop(t *testing.T) {
	t.Parallel()

	ctx := Context{Rate: 48000}

	one := &Sampler{Data: ramp(4)}
	one.SetFrequency(440)
	render(one, ctx, 4)
	if !one.Finished() {
		t.Error("Finished() = false after playing every sample")
	}
	if got := one.Process(&ctx, nil); got != 0 {
		t.Errorf("sample past end = %v, want 0", got)
	}

	loop := &Sampler{Data: ramp(4), Loop: true}
	loop.SetFrequency(440)
	got := render(loop, ctx, 6)
	if got[4] != got[0] || got[5] != got[1] {
		t.Errorf("looped samples = %v, want wrap at 4", got)
	}
	if loop.Finished() {
		t.Error("looping sampler reported Finished")
	}
}

func TestSampler_SilentUntilNote(t *testing.T) {
	t.Parallel()

	s := &Sampler{Data: ramp(4)}
	ctx := Context{Rate: 48000}
	if got := s.Process(&ctx, nil); got != 0 {
		t.Errorf("sample before SetFrequency = %v, want 0", got)
	}
}
