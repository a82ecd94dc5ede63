// SPDX-License-Identifier: EPL-2.0

package live

import (
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/ik5/symphoxy/clock"
)

// Device starts pulling from a streamer on its own goroutine.
type Device interface {
	Start(rate clock.SampleRate, bufferFrames int, s beep.Streamer) error
	Close() error
}

// LossNotifier is implemented by devices that can detect that playback
// stopped for good, such as an unplugged interface. New registers the
// sink's Fail as the callback before starting the device.
type LossNotifier interface {
	OnLost(func(error))
}

// Speaker is the beep speaker. It has no loss notification: beep reports
// errors only from speaker.Init. The speaker is process global, so only one
// live sink can use it at a time.
type Speaker struct {
	mu      sync.Mutex
	started bool
}

func (sp *Speaker) Start(rate clock.SampleRate, bufferFrames int, s beep.Streamer) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if err := speaker.Init(beep.SampleRate(rate), bufferFrames); err != nil {
		return err
	}
	speaker.Play(s)
	sp.started = true
	return nil
}

func (sp *Speaker) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if !sp.started {
		return nil
	}
	speaker.Clear()
	speaker.Close()
	sp.started = false
	return nil
}
