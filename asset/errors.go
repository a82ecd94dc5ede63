// SPDX-License-Identifier: EPL-2.0

package asset

import "errors"

var (
	ErrUnsupportedFormat     = errors.New("unsupported asset format")
	ErrNotWavFile            = errors.New("not a WAV file")
	ErrNotAiffFile           = errors.New("not an AIFF file")
	ErrOnlyPCM16bitSupported = errors.New("only 16-bit PCM supported")
	ErrEmptyAsset            = errors.New("asset has no samples")
	ErrInvalidRate           = errors.New("sample rate must be positive")
)
