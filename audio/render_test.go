// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"math"
	"testing"

	"github.com/ik5/capo/internal/audiotest"
)

func TestRender16_SameFormat(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(8000, 1, 100, 0.5)
	pcm16, err := Render16(src, 8000, 1, 32)
	if err != nil {
		t.Fatalf("Render16() error = %v", err)
	}
	if len(pcm16) != 100 {
		t.Fatalf("len = %d, want 100", len(pcm16))
	}
	if pcm16[0] != 16383 {
		t.Errorf("pcm16[0] = %d, want 16383", pcm16[0])
	}
}

func TestRender16_ResampleAndMix(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSineSource(16000, 2, 16000, 440)
	pcm16, err := Render16(src, 8000, 1, 4096)
	if err != nil {
		t.Fatalf("Render16() error = %v", err)
	}
	if diff := math.Abs(float64(len(pcm16) - 8000)); diff > 80 {
		t.Errorf("len = %d, want about 8000", len(pcm16))
	}
}

func TestRender16_SourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := &audiotest.FailingSource{Rate: 8000, Chans: 1, After: 10, Err: boom}
	if _, err := Render16(src, 8000, 1, 0); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}
