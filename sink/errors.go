// SPDX-License-Identifier: EPL-2.0

package sink

import (
	"errors"
	"fmt"
)

var (
	ErrUnderrun   = errors.New("buffer underrun")
	ErrDeviceLost = errors.New("audio device lost")
	ErrIO         = errors.New("i/o failure")
	ErrClosed     = errors.New("sink closed")
)

// Kind classifies a sink failure.
type Kind uint8

const (
	KindUnderrun Kind = iota + 1
	KindDeviceLost
	KindIO
	KindClosed
)

func (k Kind) sentinel() error {
	switch k {
	case KindUnderrun:
		return ErrUnderrun
	case KindDeviceLost:
		return ErrDeviceLost
	case KindIO:
		return ErrIO
	case KindClosed:
		return ErrClosed
	}
	return nil
}

func (k Kind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is a classified sink failure. It matches the sentinel of its Kind
// with errors.Is and unwraps to the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sink %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("sink %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// IsRecoverable reports whether rendering may continue after err.
func IsRecoverable(err error) bool {
	return err != nil && errors.Is(err, ErrUnderrun)
}
