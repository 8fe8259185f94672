// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/utils"
)

// aiffReader is the part of aiff.Decoder the source uses; tests fake it.
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// source wraps a go-audio aiff.Decoder. It keeps the raw file so it can
// seek by decoding again from the top.
type source struct {
	dec        aiffReader
	reopen     func() (aiffReader, error)
	sampleRate int
	channels   int
	bitDepth   int
	intBuf     *goaudio.IntBuffer
	next       int
	eof        bool
}

func (s *source) SampleRate() int       { return s.sampleRate }
func (s *source) Channels() int         { return s.channels }
func (s *source) Close() error          { return nil }
func (s *source) Position() (int, bool) { return s.next, true }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.eof {
		return 0, io.EOF
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	}
	s.intBuf.Data = s.intBuf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.intBuf)
	for i := range n {
		dst[i] = utils.IntToFloat32(s.intBuf.Data[i], s.bitDepth)
	}
	s.next += n

	switch {
	case err == io.EOF || n == 0:
		s.eof = true
		return n, io.EOF
	case err != nil:
		return n, fmt.Errorf("%w", err)
	case n < len(dst):
		// go-audio signals the end with a short read
		s.eof = true
		return n, io.EOF
	}

	return n, nil
}

// SeekToSample restarts decoding and skips forward to sample i.
func (s *source) SeekToSample(i int) error {
	if i < 0 {
		return audio.ErrSeekOutOfRange
	}
	if s.reopen == nil {
		return audio.ErrSeekUnsupported
	}
	i -= i % s.channels

	dec, err := s.reopen()
	if err != nil {
		return fmt.Errorf("%w: %w", audio.ErrSeekUnsupported, err)
	}
	s.dec, s.next, s.eof, s.intBuf = dec, 0, false, nil

	skip := make([]float32, 4096*s.channels)
	for s.next < i {
		want := min(len(skip), i-s.next)
		if _, err := s.ReadSamples(skip[:want]); err != nil {
			return audio.ErrSeekOutOfRange
		}
	}

	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading aiff data: %w", err)
	}
	if len(data) < 12 || !bytes.Equal(data[:4], []byte("FORM")) {
		return nil, ErrNotAiffFile
	}

	dec, err := openAIFF(data)
	if err != nil {
		return nil, err
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 {
		return nil, ErrUnsupportedAiffLayout
	}

	return &source{
		dec:        dec,
		reopen:     func() (aiffReader, error) { return openAIFF(data) },
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   int(dec.BitDepth),
	}, nil
}

func openAIFF(data []byte) (*aiff.Decoder, error) {
	dec := aiff.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, dec.BitDepth)
	}

	return dec, nil
}
