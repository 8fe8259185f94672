// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/utils"
)

// source streams PCM samples out of a go-audio wav.Decoder.
// The whole file is held in memory so the source can seek.
type source struct {
	dec        *wav.Decoder
	rs         io.ReadSeeker
	sampleRate int
	channels   int
	bitDepth   int
	dataStart  int64
	total      int // samples in the data chunk
	next       int
	intBuf     *goaudio.IntBuffer
}

func (s *source) SampleRate() int       { return s.sampleRate }
func (s *source) Channels() int         { return s.channels }
func (s *source) Close() error          { return nil }
func (s *source) SampleCount() int      { return s.total }
func (s *source) Position() (int, bool) { return s.next, true }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if s.next >= s.total {
		return 0, io.EOF
	}

	want := min(len(dst), s.total-s.next)
	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{Data: make([]int, want)}
	}
	s.intBuf.Data = s.intBuf.Data[:want]

	n, err := s.dec.PCMBuffer(s.intBuf)
	if err != nil {
		return 0, fmt.Errorf("%w", err)
	}

	for i := range n {
		v := s.intBuf.Data[i]
		if s.bitDepth == 8 {
			// 8-bit WAV samples are unsigned
			v -= 128
		}
		dst[i] = utils.IntToFloat32(v, s.bitDepth)
	}
	s.next += n

	if n == 0 || s.next >= s.total {
		s.next = s.total
		return n, io.EOF
	}

	return n, nil
}

// SeekToSample repositions the decoder inside the data chunk.
func (s *source) SeekToSample(i int) error {
	if i < 0 || i >= s.total {
		return audio.ErrSeekOutOfRange
	}
	i -= i % s.channels

	bps := s.bitDepth / 8
	offset := int64(i * bps)
	if _, err := s.rs.Seek(s.dataStart+offset, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	s.dec.PCMChunk.R = io.LimitReader(s.rs, int64(s.total*bps)-offset)
	s.next = i

	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading wav data: %w", err)
	}
	if len(data) < 12 || !bytes.Equal(data[:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, ErrNotWavFile
	}

	rs := bytes.NewReader(data)
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrUnsupportedWavLayout
	}
	// IsValidFile walks the chunks, start over at the data chunk
	if err := dec.Rewind(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavChunks, err)
	}

	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedWavLayout, dec.WavAudioFormat)
	}
	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, dec.BitDepth)
	}

	dataStart, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	channels := int(dec.NumChans)
	bps := int(dec.BitDepth) / 8
	total := dec.PCMSize / bps
	total -= total % channels

	return &source{
		dec:        dec,
		rs:         rs,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		bitDepth:   int(dec.BitDepth),
		dataStart:  dataStart,
		total:      total,
	}, nil
}
