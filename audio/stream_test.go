// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rampClip(frames int, channels Channels) Clip {
	samples := make([]Sample, frames*int(channels))
	for i := range samples {
		samples[i] = Sample(i / int(channels))
	}

	return NewClip(samples, 8000, channels)
}

func TestStream_SeekToFrameRoundTrip(t *testing.T) {
	t.Parallel()

	for _, ch := range []Channels{Mono, Stereo} {
		s := NewStream(rampClip(100, ch))
		for i := range s.FrameCount() {
			require.True(t, s.SeekToFrame(i))
			assert.Equal(t, i, s.NextFrameIndex())
		}
	}
}

func TestStream_SeekOutOfRangeKeepsCursor(t *testing.T) {
	t.Parallel()

	s := NewStream(rampClip(50, Stereo))
	require.True(t, s.SeekToFrame(7))

	assert.False(t, s.SeekToFrame(50))
	assert.False(t, s.SeekToFrame(51))
	assert.False(t, s.SeekToFrame(-1))
	assert.Equal(t, 7, s.NextFrameIndex())
}

func TestStream_ReadAccounting(t *testing.T) {
	t.Parallel()

	const frames = 1000
	s := NewStream(rampClip(frames, Stereo))
	buf := make([]Sample, 64*2)

	total := 0
	for !s.AtEnd() {
		assert.Less(t, total, frames*2)
		chunk := s.Read(buf)
		total += len(chunk.Samples)
		assert.Equal(t, Stereo, chunk.Channels)
		assert.Equal(t, 8000, chunk.SampleRate)
	}

	assert.Equal(t, frames*2, total)
	assert.Equal(t, frames, s.NextFrameIndex())
	assert.Empty(t, s.Read(buf).Samples)
}

func TestStream_ReadCopiesFromCursor(t *testing.T) {
	t.Parallel()

	s := NewStream(rampClip(10, Mono))
	require.True(t, s.SeekToFrame(8))

	buf := make([]Sample, 4)
	chunk := s.Read(buf)
	assert.Equal(t, []Sample{8, 9}, chunk.Samples)
	assert.True(t, s.AtEnd())
}

func TestStream_Invalid(t *testing.T) {
	t.Parallel()

	s := NewStream(Clip{})
	assert.False(t, s.Valid())
	assert.True(t, s.AtEnd())
	assert.Zero(t, s.NextFrameIndex())
	assert.Empty(t, s.Read(make([]Sample, 8)).Samples)
	assert.False(t, s.SeekToFrame(0))

	var nilStream *Stream
	assert.False(t, nilStream.Valid())
}

func TestStream_AsSource(t *testing.T) {
	t.Parallel()

	s := NewStream(rampClip(6, Stereo))
	buf := make([]float32, 8)

	n, err := s.ReadSamples(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = s.ReadSamples(buf)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 4, n)

	n, err = s.ReadSamples(buf)
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	_, err = s.ReadSamples(make([]float32, 3))
	assert.ErrorIs(t, err, ErrInvalidDstSize)

	require.NoError(t, Seek(s, 4))
	pos, ok := Position(s)
	assert.True(t, ok)
	assert.Equal(t, 4, pos)
	assert.Equal(t, 2, s.NextFrameIndex())
	assert.ErrorIs(t, Seek(s, 12), ErrSeekOutOfRange)
	assert.Equal(t, 12, SampleCount(s))
	assert.True(t, CanSeek(s))
}

func TestStream_Rewind(t *testing.T) {
	t.Parallel()

	s := NewStream(rampClip(4, Mono))
	s.Read(make([]Sample, 4))
	require.True(t, s.AtEnd())

	s.Rewind()
	assert.Zero(t, s.NextFrameIndex())
	assert.False(t, s.AtEnd())
}

func BenchmarkStream_Read(b *testing.B) {
	s := NewStream(rampClip(48000, Stereo))
	buf := make([]Sample, 4096*2)
	b.ReportAllocs()

	for range b.N {
		if s.AtEnd() {
			s.Rewind()
		}
		s.Read(buf)
	}
}
