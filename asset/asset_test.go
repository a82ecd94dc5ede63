// SPDX-License-Identifier: EPL-2.0

package asset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/symphoxy/internal/audiotest"
)

// createWAVFile builds a canonical 44-byte-header PCM WAV.
func createWAVFile(sampleRate, channels, bitsPerSample int, samples []int16) []byte {
	buf := new(bytes.Buffer)

	numChannels := uint16(channels)
	bits := uint16(bitsPerSample)
	byteRate := uint32(sampleRate) * uint32(numChannels) * uint32(bits/8)
	blockAlign := numChannels * (bits / 8)
	dataSize := uint32(len(samples) * 2)

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, 36+dataSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, numChannels)
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, byteRate)
	binary.Write(buf, binary.LittleEndian, blockAlign)
	binary.Write(buf, binary.LittleEndian, bits)

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	for _, s := range samples {
		binary.Write(buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()
	for _, format := range []string{"wav", ".WAV", "aiff", "aif", "mp3", ".ogg"} {
		if _, ok := r.Get(format); !ok {
			t.Errorf("Get(%q) not found", format)
		}
	}
	if _, ok := r.Get("flac"); ok {
		t.Error("Get(flac) found a decoder")
	}

	_, err := r.LoadReader(bytes.NewReader(nil), "flac", 48000)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("LoadReader(flac) error = %v, want ErrUnsupportedFormat", err)
	}

	r.Register(".FLAC", WAVDecoder{})
	if _, ok := r.Get("flac"); !ok {
		t.Error("Get(flac) after Register not found")
	}
}

func TestWAVDecoder(t *testing.T) {
	t.Parallel()

	samples := []int16{0, 16384, -16384, 32767, -32768, 0}

	tests := []struct {
		name     string
		reader   func() io.Reader
		channels int
		wantErr  error
	}{
		{
			name:     "mono",
			reader:   func() io.Reader { return bytes.NewReader(createWAVFile(8000, 1, 16, samples)) },
			channels: 1,
		},
		{
			name:     "stereo",
			reader:   func() io.Reader { return bytes.NewReader(createWAVFile(8000, 2, 16, samples)) },
			channels: 2,
		},
		{
			name: "non-seekable input",
			reader: func() io.Reader {
				return io.MultiReader(bytes.NewReader(createWAVFile(8000, 1, 16, samples)))
			},
			channels: 1,
		},
		{
			name:    "not a wav",
			reader:  func() io.Reader { return bytes.NewReader([]byte("This is not WAV data at all, just text.")) },
			wantErr: ErrNotWavFile,
		},
		{
			name:    "24 bit",
			reader:  func() io.Reader { return bytes.NewReader(createWAVFile(8000, 1, 24, samples)) },
			wantErr: ErrOnlyPCM16bitSupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, err := WAVDecoder{}.Decode(tt.reader())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}

			if src.SampleRate() != 8000 || src.Channels() != tt.channels {
				t.Errorf("format = %d Hz %d ch, want 8000 Hz %d ch", src.SampleRate(), src.Channels(), tt.channels)
			}

			got, err := ReadAll(src)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if len(got) != len(samples) {
				t.Fatalf("ReadAll() = %d samples, want %d", len(got), len(samples))
			}
			for i, s := range samples {
				if want := float32(s) / 32768; got[i] != want {
					t.Errorf("sample %d = %v, want %v", i, got[i], want)
				}
			}
		})
	}
}

// mockPCMReader simulates the go-audio decoders.
type mockPCMReader struct {
	samples []int
	offset  int
	err     error
}

func (m *mockPCMReader) Format() *goaudio.Format {
	return &goaudio.Format{SampleRate: 44100, NumChannels: 1}
}

func (m *mockPCMReader) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	n := copy(buf.Data, m.samples[m.offset:])
	m.offset += n
	return n, nil
}

func TestPCMSource(t *testing.T) {
	t.Parallel()

	src := &pcmSource{
		dec:        &mockPCMReader{samples: []int{0, 8388607, -8388608, 4194304}},
		sampleRate: 44100,
		channels:   1,
		bitDepth:   24,
	}

	dst := make([]float32, 3)
	n, err := src.ReadSamples(dst)
	if n != 3 || err != nil {
		t.Fatalf("ReadSamples() = %d, %v, want 3, nil", n, err)
	}
	if dst[2] != -1 {
		t.Errorf("24-bit minimum = %v, want -1", dst[2])
	}

	n, _ = src.ReadSamples(dst)
	if n != 1 || dst[0] != 0.5 {
		t.Errorf("second read = %d (%v), want 1 sample of 0.5", n, dst[0])
	}
	if n, err := src.ReadSamples(dst); n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("read past end = %d, %v, want 0, EOF", n, err)
	}

	bad := &pcmSource{dec: &mockPCMReader{err: io.ErrUnexpectedEOF}, channels: 1, bitDepth: 16}
	if _, err := bad.ReadSamples(dst); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() error = %v, want ErrUnexpectedEOF", err)
	}
}

func TestMP3Source(t *testing.T) {
	t.Parallel()

	var pcm []byte
	for _, v := range []int16{16384, -16384, 0, 32767} {
		pcm = binary.LittleEndian.AppendUint16(pcm, uint16(v))
	}
	// An odd trailing byte is an incomplete sample and is ignored.
	pcm = append(pcm, 0x7f)
	src := &pcmSource{dec: newMP3PCM(bytes.NewReader(pcm), 22050), sampleRate: 22050, channels: mp3Channels, bitDepth: 16}

	got, err := ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	want := []float32{0.5, -0.5, 0, 32767.0 / 32768}
	if len(got) != len(want) {
		t.Fatalf("ReadAll() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
	if src.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", src.Channels())
	}
}

func TestDecoders_InvalidInput(t *testing.T) {
	t.Parallel()

	garbage := []byte("This is not audio data, not even close to it.")
	decoders := map[string]Decoder{
		"aiff":   AIFFDecoder{},
		"mp3":    MP3Decoder{},
		"vorbis": VorbisDecoder{},
	}
	for name, d := range decoders {
		if _, err := d.Decode(bytes.NewReader(garbage)); err == nil {
			t.Errorf("%s Decode(garbage) error = nil, want error", name)
		}
	}

	if _, err := (AIFFDecoder{}).Decode(bytes.NewReader(garbage)); !errors.Is(err, ErrNotAiffFile) {
		t.Errorf("AIFF Decode(garbage) error = %v, want ErrNotAiffFile", err)
	}
}

func TestConform(t *testing.T) {
	t.Parallel()

	t.Run("same rate mono passes through", func(t *testing.T) {
		t.Parallel()

		got, err := Conform([]float32{0.25, 0.5, -0.5}, 1, 48000, 48000)
		if err != nil {
			t.Fatalf("Conform() error = %v", err)
		}
		if len(got) != 3 || got[0] != 0.25 || got[2] != -0.5 {
			t.Errorf("Conform() = %v", got)
		}
	})

	t.Run("stereo is averaged", func(t *testing.T) {
		t.Parallel()

		got, err := Conform([]float32{1, 0, 0.5, 0.5, -1, 0}, 2, 48000, 48000)
		if err != nil {
			t.Fatalf("Conform() error = %v", err)
		}
		want := []float64{0.5, 0.5, -0.5}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("frame %d = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("upsampling interpolates", func(t *testing.T) {
		t.Parallel()

		ramp := make([]float32, 100)
		for i := range ramp {
			ramp[i] = float32(i) / 100
		}
		got, err := Conform(ramp, 1, 24000, 48000)
		if err != nil {
			t.Fatalf("Conform() error = %v", err)
		}
		if len(got) != 199 {
			t.Fatalf("len = %d, want 199", len(got))
		}
		for i := 4; i < 190; i++ {
			if want := float64(i) / 200; math.Abs(got[i]-want) > 1e-6 {
				t.Fatalf("sample %d = %v, want %v", i, got[i], want)
			}
		}
	})

	t.Run("downsampling halves length", func(t *testing.T) {
		t.Parallel()

		src := make([]float32, 1000)
		got, err := Conform(src, 1, 48000, 24000)
		if err != nil {
			t.Fatalf("Conform() error = %v", err)
		}
		if len(got) != 500 {
			t.Errorf("len = %d, want 500", len(got))
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		if _, err := Conform(nil, 1, 48000, 48000); !errors.Is(err, ErrEmptyAsset) {
			t.Errorf("empty error = %v, want ErrEmptyAsset", err)
		}
		if _, err := Conform([]float32{1}, 1, 0, 48000); !errors.Is(err, ErrInvalidRate) {
			t.Errorf("zero rate error = %v, want ErrInvalidRate", err)
		}
		if _, err := Conform([]float32{1}, 0, 48000, 48000); err == nil {
			t.Error("zero channels error = nil")
		}
	})
}

func TestReadAll_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := audiotest.NewRampSource(8000, 2, 10000)
	src.FailAt = 5000
	src.Err = boom

	got, err := ReadAll(src)
	if !errors.Is(err, boom) {
		t.Fatalf("ReadAll() error = %v, want boom", err)
	}
	if len(got) != 10000 {
		t.Errorf("ReadAll() kept %d samples before the error, want 10000", len(got))
	}
}

func TestDecode_Conforms(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(16000, 2, 1600, 0.5)
	buf, err := Decode(src, 48000)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if buf.Rate != 48000 || buf.SourceRate != 16000 || buf.SourceChannels != 2 {
		t.Errorf("Buffer = %+v", buf)
	}
	if len(buf.Data) != 4798 {
		t.Errorf("len(Data) = %d, want 4798", len(buf.Data))
	}
	for i, v := range buf.Data {
		if math.Abs(v-0.5) > 1e-6 {
			t.Fatalf("sample %d = %v, want 0.5", i, v)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 800)
	for i := range samples {
		samples[i] = int16(10000 * math.Sin(float64(i)*0.05))
	}
	path := filepath.Join(t.TempDir(), "tone.WAV")
	if err := os.WriteFile(path, createWAVFile(8000, 1, 16, samples), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	buf, err := Load(path, 16000)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(buf.Data) != 1599 {
		t.Errorf("len(Data) = %d, want 1599", len(buf.Data))
	}
	if want := float64(samples[100]) / 32768; math.Abs(buf.Data[200]-want) > 1e-9 {
		t.Errorf("Data[200] = %v, want %v", buf.Data[200], want)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.wav"), 16000); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want ErrNotExist", err)
	}
}
