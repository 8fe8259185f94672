// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"testing"

	"github.com/ik5/capo/internal/audiotest"
)

func TestChannelMixer_MonoPassthrough(t *testing.T) {
	t.Parallel()

	mixer := NewMonoMixer(audiotest.NewConstantSource(8000, 1, 10, 0.25))
	buf := make([]float32, 10)

	n, err := mixer.ReadSamples(buf)
	if n != 10 || !errors.Is(err, io.EOF) {
		t.Fatalf("ReadSamples() = (%d, %v), want (10, EOF)", n, err)
	}
	if buf[3] != 0.25 {
		t.Errorf("buf[3] = %v, want 0.25", buf[3])
	}
}

func TestChannelMixer_StereoToMono(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(8000, 2, 4, func(_ int, ch int) float32 {
		if ch == 0 {
			return 1
		}
		return 0
	})
	mixer := NewMonoMixer(src)

	if mixer.Channels() != 1 || mixer.SampleRate() != 8000 {
		t.Fatalf("metadata = (%d ch, %d Hz)", mixer.Channels(), mixer.SampleRate())
	}

	buf := make([]float32, 4)
	n, _ := mixer.ReadSamples(buf)
	if n != 4 {
		t.Fatalf("ReadSamples() n = %d, want 4", n)
	}
	for i, v := range buf {
		if v != 0.5 {
			t.Errorf("buf[%d] = %v, want 0.5", i, v)
		}
	}
}

func TestChannelMixer_ManyToMono(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(8000, 4, 2, func(_ int, ch int) float32 { return float32(ch) })
	buf := make([]float32, 2)

	n, _ := NewMonoMixer(src).ReadSamples(buf)
	if n != 2 || buf[0] != 1.5 {
		t.Errorf("ReadSamples() = (%d, %v), want (2, 1.5)", n, buf[0])
	}
}

func TestChannelMixer_MonoToStereo(t *testing.T) {
	t.Parallel()

	src := audiotest.NewRampSource(8000, 1, 3, 1)
	mixer := NewChannelMixer(src, 2)
	buf := make([]float32, 6)

	n, err := mixer.ReadSamples(buf)
	if n != 6 || !errors.Is(err, io.EOF) {
		t.Fatalf("ReadSamples() = (%d, %v), want (6, EOF)", n, err)
	}
	want := []float32{0, 0, 1, 1, 2, 2}
	for i := range want {
		if buf[i] != want[i] {
			t.Errorf("buf[%d] = %v, want %v", i, buf[i], want[i])
		}
	}
}

func TestChannelMixer_FoldToStereo(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(8000, 4, 1, func(_ int, ch int) float32 { return float32(ch) })
	buf := make([]float32, 2)

	n, _ := NewChannelMixer(src, 2).ReadSamples(buf)
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	// left averages channels 0 and 2, right averages 1 and 3
	if buf[0] != 1 || buf[1] != 2 {
		t.Errorf("buf = %v, want [1 2]", buf)
	}
}

func TestChannelMixer_InvalidDst(t *testing.T) {
	t.Parallel()

	mixer := NewChannelMixer(audiotest.NewSilentSource(8000, 1, 10), 2)
	if _, err := mixer.ReadSamples(make([]float32, 3)); !errors.Is(err, ErrInvalidDstSize) {
		t.Errorf("err = %v, want ErrInvalidDstSize", err)
	}
	if n, err := mixer.ReadSamples(nil); n != 0 || err != nil {
		t.Errorf("empty read = (%d, %v)", n, err)
	}
}

func TestChannelMixer_SeekTranslatesLayout(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSeekableSource(8000, 4, 100, func(frame, _ int) float32 { return float32(frame) })
	mixer := NewChannelMixer(src, 2)

	if got := mixer.SampleCount(); got != 200 {
		t.Errorf("SampleCount() = %d, want 200", got)
	}
	if err := mixer.SeekToSample(20); err != nil {
		t.Fatalf("SeekToSample(20) = %v", err)
	}
	if pos, ok := mixer.Position(); !ok || pos != 20 {
		t.Errorf("Position() = (%d, %v), want (20, true)", pos, ok)
	}

	buf := make([]float32, 2)
	if _, err := mixer.ReadSamples(buf); err != nil {
		t.Fatalf("ReadSamples() = %v", err)
	}
	if buf[0] != 10 {
		t.Errorf("buf[0] = %v, want frame 10", buf[0])
	}
}

func TestChannelMixer_SeekUnsupported(t *testing.T) {
	t.Parallel()

	mixer := NewChannelMixer(audiotest.NewSilentSource(8000, 4, 100), 2)
	if err := mixer.SeekToSample(0); !errors.Is(err, ErrSeekUnsupported) {
		t.Errorf("SeekToSample() = %v, want ErrSeekUnsupported", err)
	}
	if _, ok := mixer.Position(); ok {
		t.Error("Position() ok on a source without a cursor")
	}
}

func TestChannelMixer_Close(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(8000, 2, 10)
	if err := NewMonoMixer(src).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !src.Closed() {
		t.Error("Close() did not close the source")
	}
}

func BenchmarkChannelMixer_StereoToMono(b *testing.B) {
	src := audiotest.NewSineSource(44100, 2, -1, 440)
	mixer := NewMonoMixer(src)
	buf := make([]float32, 4096)
	b.ReportAllocs()

	for range b.N {
		_, _ = mixer.ReadSamples(buf)
	}
}
