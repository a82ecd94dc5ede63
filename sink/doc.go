// SPDX-License-Identifier: EPL-2.0

// Package sink defines the output boundary of the renderer.
//
// Every backend implements Sink, so the render loop never knows which one
// is active:
//   - wavsink encodes a PCM WAV file when the session ends
//   - live plays through the system audio device via beep
//   - monitor summarises blocks for the terminal UI and forwards them
//
// # Errors
//
// Sink failures are reported as *Error values carrying a Kind. Underruns
// are recoverable: the session counts them and keeps rendering. Lost
// devices and I/O failures are fatal and end the session:
//
//	if err := s.Write(b); err != nil {
//		if sink.IsRecoverable(err) {
//			underruns++
//		} else {
//			return err
//		}
//	}
package sink
