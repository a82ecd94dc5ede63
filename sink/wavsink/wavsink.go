// SPDX-License-Identifier: EPL-2.0

package wavsink

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/symphoxy/audio"
	"github.com/ik5/symphoxy/clock"
	"github.com/ik5/symphoxy/sink"
	"github.com/ik5/symphoxy/utils"
)

var (
	ErrBitDepth        = errors.New("bit depth must be 16 or 24")
	ErrChannelMismatch = errors.New("block channel count does not match the sink")
)

// Options describe the output file.
type Options struct {
	Rate     clock.SampleRate
	Channels int
	BitDepth int // 16 (default) or 24
}

func (o *Options) normalize() error {
	if o.BitDepth == 0 {
		o.BitDepth = 16
	}
	if o.BitDepth != 16 && o.BitDepth != 24 {
		return fmt.Errorf("%w: %d", ErrBitDepth, o.BitDepth)
	}
	if err := o.Rate.Validate(); err != nil {
		return err
	}
	if o.Channels < 1 || o.Channels > 2 {
		return fmt.Errorf("%w: %d", audio.ErrInvalidChannels, o.Channels)
	}
	return nil
}

// Sink buffers PCM and encodes it on Close.
type Sink struct {
	opts Options
	w    io.Writer
	buf  *goaudio.IntBuffer

	file    *os.File
	path    string
	partial string

	closed bool
}

// New returns a sink writing to w. When w is an io.WriteSeeker the
// go-audio encoder is used; otherwise the file is produced by WritePCM.
func New(w io.Writer, opts Options) (*Sink, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	return &Sink{
		opts: opts,
		w:    w,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{
				NumChannels: opts.Channels,
				SampleRate:  int(opts.Rate),
			},
			SourceBitDepth: opts.BitDepth,
		},
	}, nil
}

// Create returns a sink that writes path. Output goes to path+".partial"
// until Close succeeds.
func Create(path string, opts Options) (*Sink, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	partial := path + ".partial"
	f, err := os.Create(partial)
	if err != nil {
		return nil, &sink.Error{Kind: sink.KindIO, Op: "create", Err: err}
	}

	s, err := New(f, opts)
	if err != nil {
		f.Close()
		os.Remove(partial)
		return nil, err
	}
	s.file, s.path, s.partial = f, path, partial
	return s, nil
}

// Options returns the normalised options.
func (s *Sink) Options() Options { return s.opts }

// Frames returns the number of frames buffered so far.
func (s *Sink) Frames() int { return len(s.buf.Data) / s.opts.Channels }

func (s *Sink) Write(b audio.Block) error {
	if s.closed {
		return &sink.Error{Kind: sink.KindClosed, Op: "write"}
	}
	if b.Channels != s.opts.Channels {
		return fmt.Errorf("wavsink: %w: %d, want %d", ErrChannelMismatch, b.Channels, s.opts.Channels)
	}

	for _, v := range b.Samples {
		s.buf.Data = append(s.buf.Data, utils.FloatToPCM(v, s.opts.BitDepth))
	}
	return nil
}

// Close encodes the buffered samples. Any failure is a KindIO error and
// leaves no file at the target path.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.encode()
	if s.file == nil {
		if err != nil {
			return &sink.Error{Kind: sink.KindIO, Op: "close", Err: err}
		}
		return nil
	}

	if err == nil {
		err = s.file.Sync()
	}
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(s.partial, s.path)
	}
	if err != nil {
		os.Remove(s.partial)
		return &sink.Error{Kind: sink.KindIO, Op: "close", Err: err}
	}
	return nil
}

func (s *Sink) encode() error {
	ws, ok := s.w.(io.WriteSeeker)
	if !ok {
		return WritePCM(s.w, int(s.opts.Rate), s.opts.Channels, s.opts.BitDepth, s.buf.Data)
	}

	enc := wav.NewEncoder(ws, int(s.opts.Rate), s.opts.BitDepth, s.opts.Channels, 1)
	if err := enc.Write(s.buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Abort drops the buffered samples and removes the partial file.
func (s *Sink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.buf.Data = nil

	if s.file == nil {
		return nil
	}
	s.file.Close()
	if err := os.Remove(s.partial); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &sink.Error{Kind: sink.KindIO, Op: "abort", Err: err}
	}
	return nil
}
