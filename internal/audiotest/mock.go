// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds Source doubles shared by the package tests.
// It does not import the audio package so audio's own tests can use it.
package audiotest

import (
	"errors"
	"io"
	"math"
)

// ErrOutOfRange is returned by SeekableSource for an index past the end.
var ErrOutOfRange = errors.New("audiotest: seek out of range")

// MockSource generates frames from a waveform function.
// It satisfies audio.Source but cannot seek.
type MockSource struct {
	sampleRate  int
	channels    int
	totalFrames int // frames to generate, < 0 means endless
	generated   int
	waveform    func(frame int, channel int) float32
	closed      bool
}

// NewMockSource creates a mock with totalFrames frames per channel.
// A negative totalFrames never ends.
func NewMockSource(sampleRate, channels, totalFrames int, waveform func(frame int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:  sampleRate,
		channels:    channels,
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

func NewSilentSource(sampleRate, channels, totalFrames int) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int, int) float32 { return 0 })
}

func NewSineSource(sampleRate, channels, totalFrames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(frame int, _ int) float32 {
		t := float64(frame) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

func NewConstantSource(sampleRate, channels, totalFrames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(int, int) float32 { return value })
}

// NewRampSource encodes the frame index into every sample as frame/scale,
// which lets tests recover which frame a sample came from.
func NewRampSource(sampleRate, channels, totalFrames int, scale float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalFrames, func(frame int, _ int) float32 {
		return float32(frame) / scale
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) Closed() bool    { return m.closed }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Reset rewinds the generator.
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.totalFrames >= 0 && m.generated >= m.totalFrames {
		return 0, io.EOF
	}

	frames := len(dst) / m.channels
	if m.totalFrames >= 0 {
		frames = min(frames, m.totalFrames-m.generated)
	}

	for frame := range frames {
		for ch := range m.channels {
			dst[frame*m.channels+ch] = m.waveform(m.generated+frame, ch)
		}
	}
	m.generated += frames

	if m.totalFrames >= 0 && m.generated >= m.totalFrames {
		return frames * m.channels, io.EOF
	}

	return frames * m.channels, nil
}

// SeekableSource is a MockSource that also seeks and reports its length.
type SeekableSource struct {
	*MockSource
	Seeks int
}

func NewSeekableSource(sampleRate, channels, totalFrames int, waveform func(frame int, channel int) float32) *SeekableSource {
	return &SeekableSource{MockSource: NewMockSource(sampleRate, channels, totalFrames, waveform)}
}

func (s *SeekableSource) SeekToSample(i int) error {
	frame := i / s.channels
	if frame < 0 || (s.totalFrames >= 0 && frame >= s.totalFrames) {
		return ErrOutOfRange
	}
	s.generated = frame
	s.Seeks++

	return nil
}

func (s *SeekableSource) Position() (int, bool) { return s.generated * s.channels, true }

func (s *SeekableSource) SampleCount() int {
	if s.totalFrames < 0 {
		return 0
	}

	return s.totalFrames * s.channels
}

// FailingSource returns Err after After samples.
type FailingSource struct {
	Rate, Chans int
	After       int
	Err         error
	read        int
}

func (f *FailingSource) SampleRate() int { return f.Rate }
func (f *FailingSource) Channels() int   { return f.Chans }
func (f *FailingSource) Close() error    { return nil }

func (f *FailingSource) ReadSamples(dst []float32) (int, error) {
	n := min(len(dst), f.After-f.read)
	clear(dst[:n])
	f.read += n
	if f.read >= f.After {
		return n, f.Err
	}

	return n, nil
}
