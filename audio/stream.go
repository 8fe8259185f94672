// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"time"
)

// Stream is a read cursor over a Clip.
//
// It never modifies the clip, so many streams can share one Pcm.
// Stream is not safe for concurrent use; owners serialize access.
type Stream struct {
	clip       Clip
	frameCount int
	next       int // next sample index, 0 <= next <= len(clip.Samples)
}

// NewStream returns a stream positioned at frame 0.
func NewStream(clip Clip) *Stream {
	return &Stream{clip: clip, frameCount: clip.FrameCount()}
}

func (s *Stream) Clip() Clip { return s.clip }

// Valid reports whether the underlying clip is valid.
func (s *Stream) Valid() bool { return s != nil && s.clip.Valid() }

func (s *Stream) FrameCount() int { return s.frameCount }

func (s *Stream) Duration() time.Duration { return s.clip.Duration() }

// Read copies up to len(out) samples from the cursor into out and
// advances the cursor. The returned clip views out[:n].
// Callers size out in whole frames.
func (s *Stream) Read(out []Sample) Clip {
	ret := Clip{SampleRate: s.clip.SampleRate, Channels: s.clip.Channels}
	if !s.clip.Valid() || s.next >= len(s.clip.Samples) {
		ret.Samples = out[:0]
		return ret
	}

	n := copy(out, s.clip.Samples[s.next:])
	s.next += n
	ret.Samples = out[:n]

	return ret
}

// NextFrameIndex is the frame the next Read starts from.
func (s *Stream) NextFrameIndex() int {
	if s.clip.Channels == ChannelsNone {
		return 0
	}

	return s.next / int(s.clip.Channels)
}

// AtEnd reports whether every sample has been read.
func (s *Stream) AtEnd() bool {
	return s.next >= len(s.clip.Samples)
}

// SeekToFrame moves the cursor to frame i. It fails and leaves the
// cursor untouched when i is not below FrameCount.
func (s *Stream) SeekToFrame(i int) bool {
	if i < 0 || i >= s.frameCount {
		return false
	}
	s.next = SampleCountFor(i, s.clip.Channels)

	return true
}

// Rewind is SeekToFrame(0) that also works on empty clips.
func (s *Stream) Rewind() {
	s.next = 0
}

// The methods below make a Stream usable wherever a Source is expected.

func (s *Stream) SampleRate() int { return s.clip.SampleRate }
func (s *Stream) Channels() int   { return int(s.clip.Channels) }
func (s *Stream) Close() error    { return nil }

func (s *Stream) ReadSamples(dst []float32) (int, error) {
	if s.clip.Channels != ChannelsNone && len(dst)%int(s.clip.Channels) != 0 {
		return 0, ErrInvalidDstSize
	}

	n := len(s.Read(dst).Samples)
	if s.AtEnd() {
		return n, io.EOF
	}

	return n, nil
}

func (s *Stream) SeekToSample(i int) error {
	if s.clip.Channels == ChannelsNone {
		return ErrSeekOutOfRange
	}
	if !s.SeekToFrame(i / int(s.clip.Channels)) {
		return ErrSeekOutOfRange
	}

	return nil
}

func (s *Stream) Position() (int, bool) { return s.next, true }

func (s *Stream) SampleCount() int { return len(s.clip.Samples) }
