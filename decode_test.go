// SPDX-License-Identifier: EPL-2.0

package capo

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/formats/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wavBytes(t *testing.T, rate, channels, frames int) []byte {
	t.Helper()

	samples := make([]int16, frames*channels)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}

	var buf bytes.Buffer
	require.NoError(t, wav.WriteWAV16(&buf, rate, channels, samples))

	return buf.Bytes()
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func TestHintFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]Hint{
		"a.wav":          HintWav,
		"B.WAV":          HintWav,
		"dir/c.mp3":      HintMp3,
		"d.flac":         HintFlac,
		"e.ogg":          HintVorbis,
		"f.oga":          HintVorbis,
		"g.aif":          HintAiff,
		"h.aiff":         HintAiff,
		"i.txt":          HintUnknown,
		"no-extension":   HintUnknown,
		"archive.wav.gz": HintUnknown,
	}

	for path, want := range tests {
		assert.Equal(t, want, HintFromPath(path), path)
	}
}

func TestSniff(t *testing.T) {
	t.Parallel()

	assert.Equal(t, HintWav, Sniff(wavBytes(t, 8000, 1, 4)))
	assert.Equal(t, HintFlac, Sniff([]byte("fLaC\x00\x00\x00\x22")))
	assert.Equal(t, HintVorbis, Sniff([]byte("OggS\x00\x02")))
	assert.Equal(t, HintAiff, Sniff([]byte("FORM\x00\x00\x00\x00AIFF")))
	assert.Equal(t, HintMp3, Sniff([]byte("ID3\x04\x00")))
	assert.Equal(t, HintMp3, Sniff([]byte{0xFF, 0xFB, 0x90, 0x00}))
	assert.Equal(t, HintUnknown, Sniff([]byte("hello")))
	assert.Equal(t, HintUnknown, Sniff(nil))
}

func TestHintString(t *testing.T) {
	t.Parallel()

	for _, h := range Hints {
		assert.Equal(t, h, hintFromName(h.String()))
	}
	assert.Equal(t, "unknown", HintUnknown.String())
	assert.Equal(t, "unknown", Hint(42).String())
}

func TestDecodeWav(t *testing.T) {
	t.Parallel()

	data := wavBytes(t, 8000, 1, 8000)

	for _, hint := range []Hint{HintUnknown, HintWav} {
		pcm, found, err := Decode(data, hint)
		require.NoError(t, err)
		assert.Equal(t, HintWav, found)
		assert.Equal(t, 8000, pcm.SampleRate)
		assert.Equal(t, audio.Mono, pcm.Channels)
		assert.Len(t, pcm.Samples, 8000)
		assert.InDelta(t, time.Second.Seconds(), pcm.Clip().Duration().Seconds(), 1e-9)
	}
}

func TestDecodeWrongHint(t *testing.T) {
	t.Parallel()

	_, _, err := Decode(wavBytes(t, 8000, 1, 16), HintFlac)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeGarbage(t *testing.T) {
	t.Parallel()

	_, found, err := Decode([]byte("this is not audio, not even close"), HintUnknown)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Equal(t, HintUnknown, found)
}

func TestDecodeEmptyData(t *testing.T) {
	t.Parallel()

	_, _, err := Decode(wavBytes(t, 8000, 1, 0), HintWav)
	assert.Error(t, err)
}

func TestDecodeFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "tone.wav", wavBytes(t, 16000, 2, 1600))

	pcm, hint, err := DecodeFile(path, HintUnknown)
	require.NoError(t, err)
	assert.Equal(t, HintWav, hint)
	assert.Equal(t, audio.Stereo, pcm.Channels)
	assert.Equal(t, 1600, pcm.Clip().FrameCount())
}

func TestDecodeFileMisnamed(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "actually-wav.mp3", wavBytes(t, 8000, 1, 800))

	_, hint, err := DecodeFile(path, HintUnknown)
	require.NoError(t, err)
	assert.Equal(t, HintWav, hint)
}

func TestDecodeFileMissing(t *testing.T) {
	t.Parallel()

	_, _, err := DecodeFile(filepath.Join(t.TempDir(), "nope.wav"), HintUnknown)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeFilesKeepsOrder(t *testing.T) {
	t.Parallel()

	var paths []string
	for i, frames := range []int{100, 200, 300, 400, 500, 600} {
		paths = append(paths, writeFile(t, filepath.Base(t.Name())+string(rune('a'+i))+".wav", wavBytes(t, 8000, 1, frames)))
	}

	out, err := DecodeFiles(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, out, len(paths))

	for i, d := range out {
		assert.Equal(t, paths[i], d.Path)
		assert.Equal(t, (i+1)*100, d.Pcm.Clip().FrameCount())
	}
}

func TestDecodeFilesFails(t *testing.T) {
	t.Parallel()

	good := writeFile(t, "good.wav", wavBytes(t, 8000, 1, 10))
	bad := writeFile(t, "bad.wav", []byte("garbage"))

	_, err := DecodeFiles(context.Background(), []string{good, bad})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpenStreams(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "long.wav", wavBytes(t, 8000, 2, 4000))

	src, hint, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, HintWav, hint)
	assert.Equal(t, 8000, audio.SampleCount(src))
	assert.True(t, audio.CanSeek(src))
	require.NoError(t, audio.Seek(src, 4000))

	pos, ok := audio.Position(src)
	require.True(t, ok)
	assert.Equal(t, 4000, pos)
}
