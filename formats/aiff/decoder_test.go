// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"io"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/ik5/capo/audio"
)

type fakeAIFF struct {
	format *goaudio.Format
	data   []int
	pos    int
}

func (f *fakeAIFF) Format() *goaudio.Format { return f.format }

func (f *fakeAIFF) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	n := copy(buf.Data, f.data[f.pos:])
	f.pos += n
	return n, nil
}

func newFakeSource(channels int, data []int) *source {
	format := &goaudio.Format{NumChannels: channels, SampleRate: 22050}
	open := func() (aiffReader, error) { return &fakeAIFF{format: format, data: data}, nil }
	dec, _ := open()

	return &source{
		dec:        dec,
		reopen:     open,
		sampleRate: format.SampleRate,
		channels:   channels,
		bitDepth:   16,
	}
}

func TestSourceNormalizes(t *testing.T) {
	src := newFakeSource(1, []int{0, 16384, -32768})

	buf := make([]float32, 3)
	n, err := src.ReadSamples(buf)
	if err != nil || n != 3 {
		t.Fatalf("got (%d, %v)", n, err)
	}
	if buf[1] != 0.5 || buf[2] != -1 {
		t.Errorf("unexpected samples %v", buf)
	}

	if _, err := src.ReadSamples(buf); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestSourceShortReadIsEOF(t *testing.T) {
	src := newFakeSource(2, []int{1, 2})

	n, err := src.ReadSamples(make([]float32, 8))
	if n != 2 || err != io.EOF {
		t.Errorf("got (%d, %v), want (2, EOF)", n, err)
	}
}

func TestSourceSeek(t *testing.T) {
	data := make([]int, 10000)
	for i := range data {
		data[i] = i
	}
	src := newFakeSource(2, data)

	// drain first so the seek has to reopen
	_, _ = audio.ReadFull(src, make([]float32, 10000))

	if err := src.SeekToSample(8193); err != nil {
		t.Fatalf("seek: %v", err)
	}
	if pos, _ := src.Position(); pos != 8192 {
		t.Errorf("Position = %d, want 8192", pos)
	}

	buf := make([]float32, 2)
	if _, err := src.ReadSamples(buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if want := float32(8192) / 32768; buf[0] != want {
		t.Errorf("buf[0] = %v, want %v", buf[0], want)
	}

	if err := src.SeekToSample(20000); !errors.Is(err, audio.ErrSeekOutOfRange) {
		t.Errorf("expected ErrSeekOutOfRange, got %v", err)
	}
}

func TestDecoderRejectsNonAiff(t *testing.T) {
	_, err := Decoder{}.Decode(bytes.NewReader([]byte("RIFF....WAVEfmt ")))
	if !errors.Is(err, ErrNotAiffFile) {
		t.Errorf("expected ErrNotAiffFile, got %v", err)
	}
}
