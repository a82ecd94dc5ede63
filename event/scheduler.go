// SPDX-License-Identifier: EPL-2.0

package event

import (
	"container/heap"

	"github.com/ik5/symphoxy/clock"
)

// LatePolicy decides what happens to an event scheduled behind the clock.
type LatePolicy uint8

const (
	// LateReject returns a *ScheduleError wrapping ErrPastDeadline.
	LateReject LatePolicy = iota
	// LateClamp moves the event to the current sample.
	LateClamp
)

func (p LatePolicy) String() string {
	if p == LateClamp {
		return "clamp"
	}
	return "reject"
}

// queue is a min-heap on (At, seq).
type queue []Event

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].At != q[j].At {
		return q[i].At < q[j].At
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x any)   { *q = append(*q, x.(Event)) }
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	*q = old[:n-1]
	return ev
}

// SchedulerStats counts what the scheduler has done.
type SchedulerStats struct {
	Scheduled uint64
	Clamped   uint64
	Rejected  uint64
	Drained   uint64
}

// Scheduler is the pending-event queue of a render session. It is owned
// by the render goroutine and is not safe for concurrent use.
type Scheduler struct {
	clock  clock.Reader
	policy LatePolicy
	q      queue
	seq    uint64
	stats  SchedulerStats
}

// NewScheduler returns a scheduler that checks deadlines against c.
func NewScheduler(c clock.Reader, policy LatePolicy) *Scheduler {
	return &Scheduler{clock: c, policy: policy}
}

// Policy returns the late-event policy.
func (s *Scheduler) Policy() LatePolicy { return s.policy }

// Schedule queues ev. An event whose index is already behind the clock
// is rejected or clamped to the current sample according to the policy.
func (s *Scheduler) Schedule(ev Event) error {
	if err := ev.Validate(); err != nil {
		s.stats.Rejected++
		return err
	}

	if now := s.clock.Now(); ev.At < now {
		if s.policy != LateClamp {
			s.stats.Rejected++
			return &ScheduleError{Event: ev, Now: now, Err: ErrPastDeadline}
		}
		ev.At = now
		s.stats.Clamped++
	}

	ev.seq = s.seq
	s.seq++
	heap.Push(&s.q, ev)
	s.stats.Scheduled++
	return nil
}

// ScheduleAll queues every event, stopping at the first error.
func (s *Scheduler) ScheduleAll(evs []Event) error {
	for _, ev := range evs {
		if err := s.Schedule(ev); err != nil {
			return err
		}
	}
	return nil
}

// DrainDue removes and returns the events with At <= upTo in order.
func (s *Scheduler) DrainDue(upTo clock.Index) []Event {
	return s.DrainDueInto(nil, upTo)
}

// DrainDueInto is DrainDue appending to dst.
func (s *Scheduler) DrainDueInto(dst []Event, upTo clock.Index) []Event {
	for len(s.q) > 0 && s.q[0].At <= upTo {
		dst = append(dst, heap.Pop(&s.q).(Event))
		s.stats.Drained++
	}
	return dst
}

// Next returns the index of the earliest pending event.
func (s *Scheduler) Next() (clock.Index, bool) {
	if len(s.q) == 0 {
		return 0, false
	}
	return s.q[0].At, true
}

// Len returns the number of pending events.
func (s *Scheduler) Len() int { return len(s.q) }

// Clear drops every pending event.
func (s *Scheduler) Clear() {
	clear(s.q)
	s.q = s.q[:0]
}

// Stats returns the scheduler counters.
func (s *Scheduler) Stats() SchedulerStats { return s.stats }
