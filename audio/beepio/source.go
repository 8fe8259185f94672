// SPDX-License-Identifier: EPL-2.0

package beepio

import (
	"fmt"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/ik5/capo/audio"
)

// Source reads a beep.Streamer as interleaved float32 samples. beep always
// streams stereo; a mono format keeps only the left channel.
type Source struct {
	s        beep.Streamer
	rate     int
	channels int
	frames   [][2]float64
	done     bool
}

// SeekSource is a Source over a beep.StreamSeeker.
type SeekSource struct {
	*Source
	seeker beep.StreamSeeker
}

var (
	_ audio.Source     = (*Source)(nil)
	_ audio.Seeker     = (*SeekSource)(nil)
	_ audio.Positioner = (*SeekSource)(nil)
	_ audio.Lengther   = (*SeekSource)(nil)
)

// FromStreamer wraps s, which produces audio in format.
func FromStreamer(s beep.Streamer, format beep.Format) *Source {
	channels := 2
	if format.NumChannels == 1 {
		channels = 1
	}

	return &Source{s: s, rate: int(format.SampleRate), channels: channels}
}

// FromStreamSeeker wraps a seekable streamer.
func FromStreamSeeker(s beep.StreamSeeker, format beep.Format) *SeekSource {
	return &SeekSource{Source: FromStreamer(s, format), seeker: s}
}

// Wrap picks FromStreamSeeker when s can seek and FromStreamer otherwise,
// so audio.CanSeek on the result tells the truth.
func Wrap(s beep.Streamer, format beep.Format) audio.Source {
	if ss, ok := s.(beep.StreamSeeker); ok {
		return FromStreamSeeker(ss, format)
	}

	return FromStreamer(s, format)
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.channels }

func (s *Source) Close() error {
	if c, ok := s.s.(beep.StreamCloser); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close streamer: %w", err)
		}
	}

	return nil
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}
	if s.done {
		return 0, io.EOF
	}

	want := len(dst) / s.channels
	if cap(s.frames) < want {
		s.frames = make([][2]float64, want)
	}
	frames := s.frames[:want]

	n, ok := s.s.Stream(frames)
	for i := range n {
		if s.channels == 1 {
			dst[i] = float32(frames[i][0])
			continue
		}
		dst[2*i] = float32(frames[i][0])
		dst[2*i+1] = float32(frames[i][1])
	}

	if !ok {
		s.done = true
		if err := s.s.Err(); err != nil {
			return n * s.channels, fmt.Errorf("beep streamer: %w", err)
		}
		return n * s.channels, io.EOF
	}

	return n * s.channels, nil
}

func (s *SeekSource) SeekToSample(i int) error {
	frame := i / s.channels
	if frame < 0 || frame >= s.seeker.Len() {
		return audio.ErrSeekOutOfRange
	}
	if err := s.seeker.Seek(frame); err != nil {
		return fmt.Errorf("beep seek: %w", err)
	}
	s.done = false

	return nil
}

func (s *SeekSource) Position() (int, bool) {
	return s.seeker.Position() * s.channels, true
}

func (s *SeekSource) SampleCount() int {
	return s.seeker.Len() * s.channels
}
