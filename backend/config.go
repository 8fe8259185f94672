// SPDX-License-Identifier: EPL-2.0

package backend

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Name selects a backend implementation.
type Name string

const (
	// Auto picks the first real output available in this build.
	Auto  Name = "auto"
	Oto   Name = "oto"
	Malgo Name = "malgo"
	// Soft mixes in memory without an output device.
	Soft Name = "soft"
	Null Name = "null"
)

// SampleFormat is the wire format handed to an output device.
type SampleFormat string

const (
	FormatS16 SampleFormat = "s16"
	FormatF32 SampleFormat = "f32"
)

// BytesPerSample of the format.
func (f SampleFormat) BytesPerSample() int {
	if f == FormatF32 {
		return 4
	}

	return 2
}

// Config holds output device configuration.
type Config struct {
	// Backend to use.
	// Default: "auto"
	Backend Name `yaml:"backend" json:"backend"`

	// SampleRate is the mixing and output rate in Hz.
	// Default: 44100
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels of the output device, 1 or 2.
	// Default: 2
	Channels int `yaml:"channels" json:"channels"`

	// Format of the samples sent to the device.
	// Default: "f32"
	Format SampleFormat `yaml:"format" json:"format"`

	// BufferDuration is the device-side buffer length.
	// Default: 50ms
	BufferDuration time.Duration `yaml:"buffer_duration" json:"buffer_duration"`

	// Fallback builds an inert null device when the backend fails to start
	// instead of returning ErrInvalidDevice.
	Fallback bool `yaml:"fallback" json:"fallback"`
}

func DefaultConfig() Config {
	return Config{
		Backend:        Auto,
		SampleRate:     44100,
		Channels:       2,
		Format:         FormatF32,
		BufferDuration: 50 * time.Millisecond,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample_rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("%w: channels must be 1 or 2, got %d", ErrInvalidConfig, c.Channels)
	}
	if c.Format != FormatS16 && c.Format != FormatF32 {
		return fmt.Errorf("%w: format must be s16 or f32, got %q", ErrInvalidConfig, c.Format)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("%w: buffer_duration must be positive, got %v", ErrInvalidConfig, c.BufferDuration)
	}

	return nil
}

// BufferFrames is the device buffer length in frames.
func (c *Config) BufferFrames() int {
	return int(float64(c.SampleRate) * c.BufferDuration.Seconds())
}

// ParseConfig reads YAML on top of DefaultConfig, so missing keys keep
// their defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	return ParseConfig(data)
}
