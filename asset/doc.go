// SPDX-License-Identifier: EPL-2.0

// Package asset loads recorded sounds for the Sampler node.
//
// Decoders turn a file into a Source streaming interleaved float32
// samples. Load reads the whole Source and conforms it to the session:
// channels are averaged to mono and the rate is converted with cubic
// interpolation.
//
//	buf, err := asset.Load("kick.wav", 48000)
//	if err != nil {
//		return err
//	}
//	tmpl, err := patch.Sampler(buf.Data, 0, 261.63, graph.ADSR{Release: 480})
//
// # Formats
//
// The default registry knows:
//   - wav: 16-bit PCM (go-audio/wav)
//   - aiff, aif: 16-bit PCM (go-audio/aiff)
//   - mp3: MPEG-1/2 layer III (go-mp3)
//   - ogg: Ogg Vorbis (oggvorbis)
//
// Other formats can be added with Registry.Register.
package asset
