// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"math"

	"github.com/ik5/symphoxy/clock"
)

// Block is a run of consecutive rendered frames. Samples are interleaved
// float64, nominally in [-1, 1].
type Block struct {
	Start    clock.Index // index of the first frame
	Frames   int
	Channels int
	Samples  []float64
}

// NewBlock allocates a silent block.
func NewBlock(start clock.Index, frames, channels int) Block {
	return Block{
		Start:    start,
		Frames:   frames,
		Channels: channels,
		Samples:  make([]float64, frames*channels),
	}
}

// Validate checks that the sample slice matches the frame layout.
func (b Block) Validate() error {
	if b.Channels < 1 || b.Channels > 2 {
		return fmt.Errorf("%w: %d", ErrInvalidChannels, b.Channels)
	}
	if len(b.Samples) != b.Frames*b.Channels {
		return fmt.Errorf("%w: %d samples for %d frames of %d channels",
			ErrInvalidDstSize, len(b.Samples), b.Frames, b.Channels)
	}
	return nil
}

// End returns the index one past the last frame.
func (b Block) End() clock.Index {
	return b.Start + clock.Index(b.Frames)
}

// Frame returns the samples of frame i.
func (b Block) Frame(i int) []float64 {
	return b.Samples[i*b.Channels : (i+1)*b.Channels]
}

// Peak returns the largest absolute sample value.
func (b Block) Peak() float64 {
	var p float64
	for _, v := range b.Samples {
		p = max(p, math.Abs(v))
	}
	return p
}

// RMS returns the root mean square over every sample.
func (b Block) RMS() float64 {
	if len(b.Samples) == 0 {
		return 0
	}
	var sq float64
	for _, v := range b.Samples {
		sq += v * v
	}
	return math.Sqrt(sq / float64(len(b.Samples)))
}

// Clipped counts samples outside [-1, 1].
func (b Block) Clipped() int {
	n := 0
	for _, v := range b.Samples {
		if v > 1 || v < -1 {
			n++
		}
	}
	return n
}

// Clone returns a copy that does not share the sample slice.
func (b Block) Clone() Block {
	c := b
	c.Samples = append([]float64(nil), b.Samples...)
	return c
}

// Interleave copies mono into dst, repeating every sample on each of
// channels. dst must hold len(mono)*channels samples.
func Interleave(dst, mono []float64, channels int) error {
	if len(dst) != len(mono)*channels {
		return fmt.Errorf("%w: %d samples for %d frames of %d channels",
			ErrInvalidDstSize, len(dst), len(mono), channels)
	}
	if channels == 1 {
		copy(dst, mono)
		return nil
	}
	for i, v := range mono {
		for c := range channels {
			dst[i*channels+c] = v
		}
	}
	return nil
}
