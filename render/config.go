// SPDX-License-Identifier: EPL-2.0

package render

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ik5/symphoxy/clock"
	"github.com/ik5/symphoxy/event"
	"github.com/ik5/symphoxy/voice"
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid render config")

// MaxBlockSize bounds the frames of one block.
const MaxBlockSize = 1 << 16

// Timing selects when events inside a block take effect.
type Timing uint8

const (
	// TimingSampleAccurate splits blocks at event boundaries.
	TimingSampleAccurate Timing = iota
	// TimingBlock applies every event due inside a block at its first
	// sample.
	TimingBlock
)

func (t Timing) String() string {
	if t == TimingBlock {
		return "block"
	}
	return "sample"
}

// Config configures a Session.
type Config struct {
	SampleRate clock.SampleRate
	BlockSize  int
	// Channels is 1 or 2; mono output is duplicated on both channels.
	Channels int
	Timing   Timing
	// SilenceThreshold is the envelope level under which a release ends.
	SilenceThreshold float64
	// SilenceHoldoff is the number of samples a finished voice keeps
	// rendering before it is reclaimed.
	SilenceHoldoff int
	LatePolicy     event.LatePolicy
	Voices         int
	Steal          voice.StealPolicy
	MasterGain     float64
	// MaxDuration stops Run after this much audio; zero means no limit.
	MaxDuration time.Duration

	// Transition, when set, observes voice stage changes.
	Transition func(voice.Transition)
	Logger     *slog.Logger
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:       44100,
		BlockSize:        512,
		Channels:         2,
		Timing:           TimingSampleAccurate,
		SilenceThreshold: 0.001,
		SilenceHoldoff:   64,
		LatePolicy:       event.LateReject,
		Voices:           16,
		Steal:            voice.StealOldest,
		MasterGain:       0.8,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	case c.BlockSize < 1 || c.BlockSize > MaxBlockSize:
		return fmt.Errorf("%w: block size %d outside 1..%d", ErrInvalidConfig, c.BlockSize, MaxBlockSize)
	case c.Channels != 1 && c.Channels != 2:
		return fmt.Errorf("%w: %d channels", ErrInvalidConfig, c.Channels)
	case c.Timing > TimingBlock:
		return fmt.Errorf("%w: timing %d", ErrInvalidConfig, c.Timing)
	case !(c.SilenceThreshold > 0 && c.SilenceThreshold < 1):
		return fmt.Errorf("%w: silence threshold %v outside (0,1)", ErrInvalidConfig, c.SilenceThreshold)
	case c.SilenceHoldoff < 0:
		return fmt.Errorf("%w: silence holdoff %d", ErrInvalidConfig, c.SilenceHoldoff)
	case c.LatePolicy > event.LateClamp:
		return fmt.Errorf("%w: late policy %d", ErrInvalidConfig, c.LatePolicy)
	case c.Voices < 1 || c.Voices > voice.MaxVoices:
		return fmt.Errorf("%w: %d voices outside 1..%d", ErrInvalidConfig, c.Voices, voice.MaxVoices)
	case c.Steal > voice.StealNone:
		return fmt.Errorf("%w: steal policy %d", ErrInvalidConfig, c.Steal)
	case math.IsNaN(c.MasterGain) || c.MasterGain < 0 || c.MasterGain > 4:
		return fmt.Errorf("%w: master gain %v outside [0,4]", ErrInvalidConfig, c.MasterGain)
	case c.MaxDuration < 0:
		return fmt.Errorf("%w: max duration %v", ErrInvalidConfig, c.MaxDuration)
	}
	return nil
}

// LoadConfigFromEnv overlays SYMPHOXY_* environment variables on base.
// Unset or unparsable values leave the base field untouched.
func LoadConfigFromEnv(base Config) Config {
	return loadConfig(base, os.Getenv)
}

func loadConfig(cfg Config, getenv func(string) string) Config {
	// Sample rate and sizes
	if v := getenv("SYMPHOXY_SAMPLE_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SampleRate = clock.SampleRate(n)
		}
	}
	if v := getenv("SYMPHOXY_BLOCK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= MaxBlockSize {
			cfg.BlockSize = n
		}
	}
	if v := getenv("SYMPHOXY_CHANNELS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && (n == 1 || n == 2) {
			cfg.Channels = n
		}
	}
	if v := getenv("SYMPHOXY_VOICES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= voice.MaxVoices {
			cfg.Voices = n
		}
	}

	// Timing
	if v := getenv("SYMPHOXY_SAMPLE_ACCURATE"); v != "" {
		if accurate, err := strconv.ParseBool(v); err == nil {
			if accurate {
				cfg.Timing = TimingSampleAccurate
			} else {
				cfg.Timing = TimingBlock
			}
		}
	}
	if v := getenv("SYMPHOXY_LATE_POLICY"); v != "" {
		switch strings.ToLower(v) {
		case "reject":
			cfg.LatePolicy = event.LateReject
		case "clamp":
			cfg.LatePolicy = event.LateClamp
		}
	}

	// Silence detection
	if v := getenv("SYMPHOXY_SILENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f < 1 {
			cfg.SilenceThreshold = f
		}
	}
	if v := getenv("SYMPHOXY_SILENCE_HOLDOFF"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.SilenceHoldoff = n
		}
	}

	// Master volume (0-100 converted to 0.0-1.0)
	if v := getenv("SYMPHOXY_MASTER_VOLUME"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MasterGain = float64(min(max(n, 0), 100)) / 100
		}
	}

	return cfg
}
