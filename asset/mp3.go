// SPDX-License-Identifier: EPL-2.0

package asset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gomp3 "github.com/hajimehoshi/go-mp3"
)

// mp3Channels is fixed: go-mp3 always decodes to interleaved stereo.
const mp3Channels = 2

// mp3PCM presents a go-mp3 byte stream as a pcmReader, so MP3 shares the
// integer PCM path of WAV and AIFF.
type mp3PCM struct {
	r      io.Reader
	format *goaudio.Format
	raw    []byte
}

func newMP3PCM(r io.Reader, rate int) *mp3PCM {
	return &mp3PCM{r: r, format: &goaudio.Format{NumChannels: mp3Channels, SampleRate: rate}}
}

func (m *mp3PCM) Format() *goaudio.Format { return m.format }

// PCMBuffer fills buf.Data with 16-bit samples. A short final read is
// returned without error; io.EOF follows on the next call.
func (m *mp3PCM) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	need := 2 * len(buf.Data)
	if cap(m.raw) < need {
		m.raw = make([]byte, need)
	}
	m.raw = m.raw[:need]

	got, err := io.ReadFull(m.r, m.raw)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	n := got / 2
	for i := range n {
		buf.Data[i] = int(int16(binary.LittleEndian.Uint16(m.raw[2*i:])))
	}
	return n, err
}

// MP3Decoder reads MPEG audio layer III streams.
type MP3Decoder struct{}

func (MP3Decoder) Decode(r io.Reader) (Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3: %w", err)
	}
	return &pcmSource{
		dec:        newMP3PCM(dec, dec.SampleRate()),
		sampleRate: dec.SampleRate(),
		channels:   mp3Channels,
		bitDepth:   16,
	}, nil
}
