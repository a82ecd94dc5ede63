// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize  = errors.New("sample count must be a multiple of channels")
	ErrInvalidChannels = errors.New("channel count must be 1 or 2")
)
