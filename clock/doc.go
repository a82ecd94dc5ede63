// SPDX-License-Identifier: EPL-2.0

// Package clock provides the sample clock of a render session.
//
// All timing in the engine is expressed in samples at a fixed SampleRate.
// Wall-clock time never drives synthesis: the renderer advances the clock
// by exactly the number of frames it produced, so an offline render and a
// live render of the same events walk through identical sample indices.
//
//	c, _ := clock.New(48000)
//	c.Advance(512) // 512
//	c.Now()        // 512
//	c.Elapsed()    // 10.666ms
package clock
