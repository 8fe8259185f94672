// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/capo/audio"
)

// go-mp3 always emits 16-bit little-endian stereo
const (
	channels      = 2
	bytesPerFrame = channels * 2
)

// mp3Reader is the part of gomp3.Decoder the source uses; tests fake it.
type mp3Reader interface {
	io.ReadSeeker
	SampleRate() int
	Length() int64
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	pending    []byte // trailing bytes of a partial sample
	next       int
}

func (s *source) SampleRate() int       { return s.sampleRate }
func (s *source) Channels() int         { return channels }
func (s *source) Close() error          { return nil }
func (s *source) Position() (int, bool) { return s.next, true }

// SampleCount is known only when the underlying reader is seekable.
func (s *source) SampleCount() int {
	length := s.dec.Length()
	if length <= 0 {
		return 0
	}

	return int(length / 2)
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	bytesNeeded := len(dst) * 2
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	carried := copy(s.buf, s.pending)
	s.pending = s.pending[:0]

	n, err := s.dec.Read(s.buf[carried:])
	n += carried

	samples := n / 2
	for i := range samples {
		val := int16(binary.LittleEndian.Uint16(s.buf[2*i:]))
		dst[i] = float32(val) / 32768.0
	}
	if rem := n % 2; rem > 0 {
		s.pending = append(s.pending, s.buf[n-rem:n]...)
	}
	s.next += samples

	if err != nil && err != io.EOF {
		return samples, fmt.Errorf("%w", err)
	}

	return samples, err
}

// SeekToSample moves the decoder to the frame holding sample i.
func (s *source) SeekToSample(i int) error {
	total := s.SampleCount()
	if total == 0 {
		// go-mp3 only indexes frames on a seekable input
		return audio.ErrSeekUnsupported
	}
	if i < 0 || i >= total {
		return audio.ErrSeekOutOfRange
	}
	i -= i % channels

	if _, err := s.dec.Seek(int64(i/channels)*bytesPerFrame, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %w", audio.ErrSeekUnsupported, err)
	}
	s.pending = s.pending[:0]
	s.next = i

	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMp3File, err)
	}

	return newSource(dec), nil
}

func newSource(dec mp3Reader) *source {
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}
}
