// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClip_FrameCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		clip Clip
		want int
	}{
		{name: "mono", clip: NewClip(make([]Sample, 10), 8000, Mono), want: 10},
		{name: "stereo", clip: NewClip(make([]Sample, 10), 8000, Stereo), want: 5},
		{name: "no channels", clip: NewClip(make([]Sample, 10), 8000, ChannelsNone), want: 0},
		{name: "empty", clip: Clip{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.clip.FrameCount())
		})
	}
}

func TestClip_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, NewClip([]Sample{0}, 1, Mono).Valid())
	assert.False(t, NewClip(nil, 44100, Mono).Valid())
	assert.False(t, NewClip([]Sample{0}, 0, Mono).Valid())
	assert.False(t, NewClip([]Sample{0}, 44100, ChannelsNone).Valid())
}

func TestClip_Duration(t *testing.T) {
	t.Parallel()

	clip := NewClip(make([]Sample, 2*22050), 44100, Stereo)
	assert.Equal(t, 500*time.Millisecond, clip.Duration())
	assert.Zero(t, Clip{}.Duration())
}

func TestChannels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "mono", Mono.String())
	assert.Equal(t, "stereo", Stereo.String())
	assert.Equal(t, "none", ChannelsNone.String())
	assert.Equal(t, "channels(6)", Channels(6).String())

	assert.Equal(t, Mono, ToChannels(1))
	assert.Equal(t, Stereo, ToChannels(2))
	assert.Equal(t, ChannelsNone, ToChannels(6))

	assert.Equal(t, 8, SampleCountFor(4, Stereo))
	assert.Equal(t, 4, FrameCountFor(8, Stereo))
}

func TestDurationFrames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Second, FramesToDuration(48000, 48000))
	assert.Zero(t, FramesToDuration(10, 0))
	assert.Equal(t, 24000, DurationToFrames(500*time.Millisecond, 48000))
}
