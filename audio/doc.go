// SPDX-License-Identifier: EPL-2.0

// Package audio defines the unit of rendered sound passed from the
// renderer to an output sink.
//
// # Blocks
//
// A Block is a fixed run of consecutive frames starting at an absolute
// sample index:
//
//	b := audio.NewBlock(clk.Now(), 512, 2)
//	_ = audio.Interleave(b.Samples, mono, b.Channels)
//	peak, rms := b.Peak(), b.RMS()
//
// # Sample Format
//
// Samples are float64 and interleaved by channel:
//   - 0.0 represents silence
//   - 1.0 represents maximum positive amplitude
//   - -1.0 represents maximum negative amplitude
//
// The renderer does not clip. Values outside [-1, 1] reach the sink as
// they are; PCM sinks clamp when converting, and Clipped counts them so a
// monitor can show it.
//
// # Ownership
//
// A sink receives a Block whose Samples slice belongs to the renderer and
// is reused for the next block. Sinks that keep samples past Write must
// copy them, for example with Clone.
package audio
