// SPDX-License-Identifier: EPL-2.0

// Package live plays rendered blocks through the system audio device.
//
// The render goroutine and the device callback never share state except
// through a bounded queue of blocks. Write enqueues a copy of each block;
// the device pulls samples through a beep.Streamer. When the queue is
// full Write either waits up to WriteTimeout (PolicyBlock) or evicts the
// oldest queued block (PolicyDropOldest). When the device finds the queue
// empty after playback started it plays silence, and the next Write
// reports a recoverable underrun.
//
//	s, err := live.New(live.Options{Rate: 48000, Channels: 2})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
// The default device is the beep speaker. Tests and headless tools can
// supply their own Device and drive the Streamer directly.
package live
