// SPDX-License-Identifier: EPL-2.0

// Package event holds timed musical events and the scheduler that hands
// them to the renderer.
//
// Events are stamped with an absolute sample index. The Scheduler keeps
// them in a priority queue ordered by index, with ties broken by the order
// in which they were scheduled, so two events for the same sample are
// always applied in insertion order.
//
// Scheduling an event behind the clock is an error unless the scheduler
// was created with LateClamp, in which case the event is moved to the
// current sample:
//
//	s := event.NewScheduler(clk, event.LateReject)
//	err := s.Schedule(event.Event{At: 0, Kind: event.NoteOn, Note: 60, Velocity: 0.8})
//	if errors.Is(err, event.ErrPastDeadline) {
//		// the caller decides
//	}
package event
