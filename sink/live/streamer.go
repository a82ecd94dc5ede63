// SPDX-License-Identifier: EPL-2.0

package live

import (
	"sync"
	"sync/atomic"

	"github.com/ik5/symphoxy/audio"
)

// Streamer is the consumer side of the queue. It implements
// beep.Streamer and runs on the device goroutine.
type Streamer struct {
	queue <-chan audio.Block
	cur   audio.Block
	pos   int // frame within cur

	started  bool
	finished atomic.Bool
	done     chan struct{}
	doneOnce sync.Once

	underruns atomic.Uint64
	played    atomic.Uint64
	silence   atomic.Uint64
}

// Stream fills samples from the queue. Mono blocks are copied to both
// sides. An empty queue yields silence and counts one underrun per pull,
// once the first block arrived. After the sink closes and the queue
// drains, Stream reports ok == false.
func (st *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	i := 0
	short := false
	for i < len(samples) {
		if st.pos >= st.cur.Frames {
			if !st.next() {
				short = true
				break
			}
		}

		ch := st.cur.Channels
		for ; i < len(samples) && st.pos < st.cur.Frames; i++ {
			f := st.cur.Samples[st.pos*ch : st.pos*ch+ch]
			samples[i][0] = f[0]
			samples[i][1] = f[ch-1]
			st.pos++
		}
	}
	st.played.Add(uint64(i))

	if !short {
		return len(samples), true
	}

	if st.finished.Load() {
		st.doneOnce.Do(func() { close(st.done) })
		if i == 0 {
			return 0, false
		}
		return i, true
	}

	for j := i; j < len(samples); j++ {
		samples[j] = [2]float64{}
	}
	if st.started {
		st.underruns.Add(1)
		st.silence.Add(uint64(len(samples) - i))
	}
	return len(samples), true
}

func (st *Streamer) next() bool {
	select {
	case b := <-st.queue:
		st.cur, st.pos = b, 0
		st.started = true
		return true
	default:
		return false
	}
}

func (st *Streamer) finish() { st.finished.Store(true) }

// Err implements beep.Streamer.
func (st *Streamer) Err() error { return nil }

// Underruns returns the number of pulls that found the queue empty.
func (st *Streamer) Underruns() uint64 { return st.underruns.Load() }
