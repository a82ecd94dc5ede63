// SPDX-License-Identifier: EPL-2.0

package event

import (
	"errors"
	"fmt"

	"github.com/ik5/symphoxy/clock"
)

var (
	ErrPastDeadline = errors.New("event is behind the clock")
	ErrInvalidEvent = errors.New("invalid event")
)

// ScheduleError reports an event that arrived after its sample was
// rendered.
type ScheduleError struct {
	Event Event
	Now   clock.Index
	Err   error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("schedule %s: %v (now %d, late by %d samples)",
		e.Event, e.Err, e.Now, e.Now-e.Event.At)
}

func (e *ScheduleError) Unwrap() error { return e.Err }
