// SPDX-License-Identifier: EPL-2.0

package asset

import (
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"
)

// VorbisDecoder reads Ogg Vorbis streams. The stream is decoded in full
// on Decode.
type VorbisDecoder struct{}

func (VorbisDecoder) Decode(r io.Reader) (Source, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("vorbis: %w", err)
	}

	return &sliceSource{
		data:       data,
		sampleRate: format.SampleRate,
		channels:   format.Channels,
	}, nil
}
