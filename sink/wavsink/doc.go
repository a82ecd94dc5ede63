// SPDX-License-Identifier: EPL-2.0

// Package wavsink writes rendered blocks to a PCM WAV file.
//
// Samples are converted to integers as they arrive and kept in memory;
// the file is encoded once, when the sink is closed. Seekable targets are
// written by the go-audio/wav encoder. Other writers get a canonical
// 44-byte header from WritePCM.
//
//	s, err := wavsink.Create("out.wav", wavsink.Options{Rate: 48000, Channels: 2})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
// Create writes to a temporary ".partial" file next to the target and
// renames it on Close, so an aborted session never leaves a truncated
// WAV behind.
//
// Output is a pure function of the samples and Options: rendering the same
// session twice yields identical bytes.
package wavsink
