// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"math"
	"testing"
)

func settle(f *Filter, input float64, n int) float64 {
	ctx := Context{Rate: 48000}
	var y float64
	for range n {
		y = f.Process(&ctx, []float64{input})
	}
	return y
}

func TestFilter_DCResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind FilterKind
		want float64
	}{
		{name: "lowpass passes dc", kind: Lowpass, want: 1},
		{name: "highpass blocks dc", kind: Highpass, want: 0},
		{name: "bandpass blocks dc", kind: Bandpass, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := &Filter{Kind: tt.kind, Cutoff: 1000, Q: 0.707}
			if got := settle(f, 1, 4800); math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("settled output = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_LowpassAttenuatesHighs(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	osc := b.Add("osc", &Oscillator{Wave: WaveSine, Freq: 15000, Fixed: true})
	lp := b.Add("lp", &Filter{Kind: Lowpass, Cutoff: 200}, osc)
	tmpl, err := b.Build(lp)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	g := tmpl.Instantiate()
	buf := make([]float64, 4800)
	g.Render(Context{Rate: 48000}, buf)

	var peak float64
	for _, v := range buf[2400:] {
		peak = max(peak, math.Abs(v))
	}
	if peak > 0.01 {
		t.Errorf("15 kHz through 200 Hz lowpass peak = %v, want < 0.01", peak)
	}
}

func TestFilter_CutoffModulation(t *testing.T) {
	t.Parallel()

	f := &Filter{Kind: Lowpass, Cutoff: 500, ModDepth: 100}
	ctx := Context{Rate: 48000}
	f.Process(&ctx, []float64{0, 1, 1})
	if f.designed != 700 {
		t.Errorf("designed cutoff = %v, want 700", f.designed)
	}

	// Small changes reuse the coefficients.
	f.Process(&ctx, []float64{0, 1.001, 1})
	if f.designed != 700 {
		t.Errorf("designed cutoff after small change = %v, want 700", f.designed)
	}
}

func TestFilter_RecoversFromNonFinite(t *testing.T) {
	t.Parallel()

	f := &Filter{Kind: Lowpass, Cutoff: 1000}
	ctx := Context{Rate: 48000}
	f.Process(&ctx, []float64{math.Inf(1)})
	if f.hist != [2]float64{} {
		t.Fatalf("history after Inf = %v, want reset", f.hist)
	}
	if got := f.Process(&ctx, []float64{0}); got != 0 {
		t.Errorf("output after recovery = %v, want 0", got)
	}
}

func TestFilter_SetParamAndClone(t *testing.T) {
	t.Parallel()

	f := &Filter{Kind: Bandpass, Cutoff: 1000}
	settle(f, 1, 10)

	if !f.SetParam("cutoff", 2000) || !f.SetParam("q", 4) || !f.SetParam("depth", 10) {
		t.Fatal("SetParam() rejected a filter parameter")
	}
	if f.SetParam("attack", 1) {
		t.Error("SetParam(attack) = true, want false")
	}

	c := f.Clone().(*Filter)
	if c.Cutoff != 2000 || c.Q != 4 || c.ModDepth != 10 || c.Kind != Bandpass {
		t.Errorf("Clone() = %+v, want same settings", c)
	}
	if c.hist != [2]float64{} {
		t.Errorf("Clone() history = %v, want zero", c.hist)
	}
}
