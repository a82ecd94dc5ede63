// SPDX-License-Identifier: EPL-2.0

package asset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ik5/symphoxy/clock"
	"github.com/ik5/symphoxy/utils"
)

// Buffer is a decoded asset conformed to a session.
type Buffer struct {
	Data []float64 // mono at Rate
	Rate clock.SampleRate

	SourceRate     int
	SourceChannels int
}

// ReadAll drains src and returns its interleaved samples.
func ReadAll(src Source) ([]float32, error) {
	chunk := 4096 * max(src.Channels(), 1)
	buf := make([]float32, chunk)
	var out []float32

	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("%w", err)
		}
	}
}

// Conform averages interleaved samples to mono and converts them from
// srcRate to dstRate with cubic interpolation. When downsampling, a
// one-pole lowpass runs before interpolation to tame aliasing.
func Conform(interleaved []float32, channels, srcRate int, dstRate clock.SampleRate) ([]float64, error) {
	if channels < 1 {
		return nil, fmt.Errorf("asset: %d channels", channels)
	}
	if srcRate <= 0 || dstRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d", ErrInvalidRate, srcRate, dstRate)
	}

	frames := len(interleaved) / channels
	if frames == 0 {
		return nil, ErrEmptyAsset
	}

	mono := make([]float64, frames)
	inv := 1 / float64(channels)
	for f := range frames {
		var sum float64
		for c := range channels {
			sum += float64(interleaved[f*channels+c])
		}
		mono[f] = sum * inv
	}

	ratio := float64(srcRate) / float64(dstRate)
	if ratio == 1 {
		return mono, nil
	}

	if ratio > 1 {
		const alpha = 0.5
		state := mono[0]
		for i, v := range mono {
			state = alpha*v + (1-alpha)*state
			mono[i] = state
		}
	}

	n := int(float64(frames-1)/ratio) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = utils.Interpolate(mono, float64(i)*ratio)
	}
	return out, nil
}

// Decode reads src to the end and conforms it.
func Decode(src Source, rate clock.SampleRate) (*Buffer, error) {
	data, err := ReadAll(src)
	if err != nil {
		return nil, err
	}

	mono, err := Conform(data, src.Channels(), src.SampleRate(), rate)
	if err != nil {
		return nil, err
	}
	return &Buffer{
		Data:           mono,
		Rate:           rate,
		SourceRate:     src.SampleRate(),
		SourceChannels: src.Channels(),
	}, nil
}

// LoadReader decodes r with the registry decoder for format.
func (r *Registry) LoadReader(in io.Reader, format string, rate clock.SampleRate) (*Buffer, error) {
	d, ok := r.Get(format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	src, err := d.Decode(in)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return Decode(src, rate)
}

// Load opens path and picks the decoder from its extension.
func (r *Registry) Load(path string, rate clock.SampleRate) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	defer f.Close()

	buf, err := r.LoadReader(f, filepath.Ext(path), rate)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", path, err)
	}
	return buf, nil
}

// Load loads path with the default registry.
func Load(path string, rate clock.SampleRate) (*Buffer, error) {
	return DefaultRegistry().Load(path, rate)
}
