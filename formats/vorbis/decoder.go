// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"fmt"
	"io"

	"github.com/ik5/capo/audio"
	"github.com/jfreymuth/oggvorbis"
)

// oggReader is the part of oggvorbis.Reader the source uses; tests fake it.
// Position, Length and SetPosition count frames, Read counts values.
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
	Position() int64
	Length() int64
	SetPosition(int64) error
}

type source struct {
	dec      oggReader
	channels int
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

// SampleCount is zero when the input was not seekable.
func (s *source) SampleCount() int { return int(s.dec.Length()) * s.channels }

func (s *source) Position() (int, bool) {
	return int(s.dec.Position()) * s.channels, true
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	// Read trims the buffer to whole frames and returns values, not frames
	n, err := s.dec.Read(dst)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w", err)
	}

	return n, err
}

func (s *source) SeekToSample(i int) error {
	length := s.dec.Length()
	if length == 0 {
		return audio.ErrSeekUnsupported
	}

	frame := int64(i / s.channels)
	if i < 0 || frame >= length {
		return audio.ErrSeekOutOfRange
	}
	if err := s.dec.SetPosition(frame); err != nil {
		return fmt.Errorf("%w: %w", audio.ErrSeekUnsupported, err)
	}

	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotVorbisFile, err)
	}
	if dec.Channels() <= 0 {
		return nil, ErrNotVorbisFile
	}

	return &source{dec: dec, channels: dec.Channels()}, nil
}
