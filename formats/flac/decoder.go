// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/utils"
	"github.com/mewkiz/flac"
)

// frameReader yields decoded FLAC frames as per-channel sample blocks.
type frameReader interface {
	Next() ([][]int32, error)
}

// streamFrames adapts a mewkiz/flac stream to frameReader.
type streamFrames struct {
	stream *flac.Stream
}

func (f streamFrames) Next() ([][]int32, error) {
	frame, err := f.stream.ParseNext()
	if err != nil {
		return nil, err
	}

	blocks := make([][]int32, len(frame.Subframes))
	for ch, sub := range frame.Subframes {
		blocks[ch] = sub.Samples[:frame.BlockSize]
	}

	return blocks, nil
}

// source interleaves FLAC frames, carrying what did not fit the caller's
// buffer over to the next read.
type source struct {
	frames     frameReader
	reopen     func() (frameReader, error)
	sampleRate int
	channels   int
	bitDepth   int
	total      int // samples, 0 when the header does not say
	pending    []float32
	next       int
	eof        bool
}

func (s *source) SampleRate() int       { return s.sampleRate }
func (s *source) Channels() int         { return s.channels }
func (s *source) Close() error          { return nil }
func (s *source) SampleCount() int      { return s.total }
func (s *source) Position() (int, bool) { return s.next, true }

func (s *source) ReadSamples(dst []float32) (int, error) {
	n := 0
	for n < len(dst) {
		if len(s.pending) == 0 {
			if s.eof {
				break
			}
			if err := s.decodeFrame(); err != nil {
				s.next += n
				return n, err
			}
			continue
		}

		c := copy(dst[n:], s.pending)
		s.pending = s.pending[c:]
		n += c
	}
	s.next += n

	if s.eof && len(s.pending) == 0 {
		return n, io.EOF
	}

	return n, nil
}

func (s *source) decodeFrame() error {
	blocks, err := s.frames.Next()
	if err == io.EOF {
		s.eof = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	if len(blocks) != s.channels {
		return fmt.Errorf("%w: frame has %d channels", ErrUnsupportedFlacLayout, len(blocks))
	}

	frameLen := len(blocks[0])
	buf := s.pending[:0]
	if cap(buf) < frameLen*s.channels {
		buf = make([]float32, 0, frameLen*s.channels)
	}
	for i := range frameLen {
		for ch := range s.channels {
			buf = append(buf, utils.IntToFloat32(int(blocks[ch][i]), s.bitDepth))
		}
	}
	s.pending = buf

	return nil
}

// SeekToSample restarts the stream and decodes forward to sample i.
func (s *source) SeekToSample(i int) error {
	if i < 0 || (s.total > 0 && i >= s.total) {
		return audio.ErrSeekOutOfRange
	}
	i -= i % s.channels

	frames, err := s.reopen()
	if err != nil {
		return fmt.Errorf("%w: %w", audio.ErrSeekUnsupported, err)
	}
	s.frames, s.pending, s.next, s.eof = frames, s.pending[:0], 0, false

	for !s.eof {
		if err := s.decodeFrame(); err != nil {
			return err
		}
		if s.next+len(s.pending) > i {
			s.pending = s.pending[i-s.next:]
			s.next = i
			return nil
		}
		s.next += len(s.pending)
		s.pending = s.pending[:0]
	}

	return audio.ErrSeekOutOfRange
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading flac data: %w", err)
	}
	if !bytes.HasPrefix(data, []byte("fLaC")) {
		return nil, ErrNotFlacFile
	}

	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFlacFile, err)
	}

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	if channels <= 0 || info.SampleRate == 0 {
		return nil, ErrUnsupportedFlacLayout
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}

	return &source{
		frames: streamFrames{stream: stream},
		reopen: func() (frameReader, error) {
			st, err := flac.New(bytes.NewReader(data))
			if err != nil {
				return nil, err
			}
			return streamFrames{stream: st}, nil
		},
		sampleRate: int(info.SampleRate),
		channels:   channels,
		bitDepth:   bitDepth,
		total:      int(info.NSamples) * channels,
	}, nil
}
