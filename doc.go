// SPDX-License-Identifier: EPL-2.0

// Package symphoxy is a block-based polyphonic synthesizer.
//
// A piece is a score of timed note and parameter events. Each note is
// played by a voice, a private instance of an instrument graph built from
// oscillators, envelopes, filters and mixers. The render session mixes
// the voices one block at a time against a sample clock and hands every
// block to a sink: a WAV file, a live audio device or a level monitor.
//
// # Quick Start
//
// RenderWAV plays a score through one of the built-in patches:
//
//	sc, _ := score.ParseFile("song.json")
//	f, _ := os.Create("song.wav")
//	stats, err := symphoxy.RenderWAV(ctx, f, sc, render.DefaultConfig(), 16)
//
// # Packages
//
//   - clock: sample rate and sample index arithmetic
//   - graph: node templates, per-voice instances and the ADSR envelope
//   - event: timed events and the scheduler
//   - voice: the voice pool with stealing and silence reclamation
//   - render: session configuration and the render loop
//   - audio: the interleaved output block
//   - sink, sink/wavsink, sink/live, sink/monitor: block consumers
//   - patch: ready made instruments
//   - score: the JSON score format and note names
//   - asset: decoding WAV, AIFF, MP3 and Ogg Vorbis samples
//
// For more control build a render.Session directly; cmd/symphoxy shows
// each sink in use.
package symphoxy
