// SPDX-License-Identifier: EPL-2.0

package clock

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSampleRate is returned when a sample rate is not positive.
var ErrInvalidSampleRate = errors.New("sample rate must be positive")

// SampleRate is the number of frames per second of a session.
type SampleRate int

// N returns the number of samples that last for d.
func (r SampleRate) N(d time.Duration) int {
	secs, frac := d/time.Second, d%time.Second
	return int(int64(secs)*int64(r) + int64(frac)*int64(r)/int64(time.Second))
}

// D returns the duration of n samples.
func (r SampleRate) D(n int) time.Duration {
	secs, rem := n/int(r), n%int(r)
	return time.Duration(secs)*time.Second + time.Duration(rem)*time.Second/time.Duration(r)
}

// Validate reports whether r can drive a session.
func (r SampleRate) Validate() error {
	if r <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSampleRate, int(r))
	}
	return nil
}

// Index is an absolute sample position within a session.
type Index int64

// Reader exposes the current position without allowing mutation.
type Reader interface {
	Now() Index
}

// Clock owns the monotonically increasing sample counter of a session.
// It is owned by the renderer and is not safe for concurrent use.
type Clock struct {
	rate SampleRate
	now  Index
}

// New returns a clock at index 0.
func New(rate SampleRate) (*Clock, error) {
	if err := rate.Validate(); err != nil {
		return nil, err
	}
	return &Clock{rate: rate}, nil
}

// Advance moves the clock forward by n samples and returns the new index.
// A negative n would break monotonicity and panics.
func (c *Clock) Advance(n int) Index {
	if n < 0 {
		panic(fmt.Sprintf("clock: negative advance %d", n))
	}
	c.now += Index(n)
	return c.now
}

// Now returns the current sample index.
func (c *Clock) Now() Index { return c.now }

// Rate returns the sample rate the clock counts in.
func (c *Clock) Rate() SampleRate { return c.rate }

// Elapsed converts the current index to a duration.
func (c *Clock) Elapsed() time.Duration {
	sec := c.now / Index(c.rate)
	rem := c.now % Index(c.rate)
	return time.Duration(sec)*time.Second + c.rate.D(int(rem))
}
