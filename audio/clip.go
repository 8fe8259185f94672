// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"time"
)

// Sample is the unit of PCM data in this module: a float in [-1, 1].
// Backends convert to their device format on output.
type Sample = float32

// Channels is the channel layout of a clip. Its numeric value is the
// number of samples per frame.
type Channels uint8

const (
	ChannelsNone Channels = iota
	Mono
	Stereo
)

func (c Channels) String() string {
	switch c {
	case ChannelsNone:
		return "none"
	case Mono:
		return "mono"
	case Stereo:
		return "stereo"
	default:
		return fmt.Sprintf("channels(%d)", uint8(c))
	}
}

// ToChannels converts a channel count into a Channels value.
// Counts other than 1 and 2 map to ChannelsNone.
func ToChannels(n int) Channels {
	switch n {
	case 1:
		return Mono
	case 2:
		return Stereo
	default:
		return ChannelsNone
	}
}

// FrameCountFor converts a sample count into whole frames.
func FrameCountFor(samples int, c Channels) int {
	if c == ChannelsNone {
		return 0
	}

	return samples / int(c)
}

// SampleCountFor converts frames into interleaved samples.
func SampleCountFor(frames int, c Channels) int {
	return frames * int(c)
}

// Clip is a non-owning view over interleaved samples.
// The storage behind Samples must outlive the clip and every stream made
// from it; nothing checks this at runtime.
type Clip struct {
	Samples    []Sample
	SampleRate int
	Channels   Channels
}

func NewClip(samples []Sample, sampleRate int, channels Channels) Clip {
	return Clip{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

// FrameCount is len(Samples)/Channels, or 0 without channels.
func (c Clip) FrameCount() int {
	return FrameCountFor(len(c.Samples), c.Channels)
}

// Valid reports whether the clip has samples, a rate and a channel layout.
func (c Clip) Valid() bool {
	return len(c.Samples) > 0 && c.SampleRate > 0 && c.Channels > ChannelsNone
}

// Duration of the clip at its sample rate.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels == ChannelsNone {
		return 0
	}

	return FramesToDuration(c.FrameCount(), c.SampleRate)
}

// FramesToDuration converts a frame count at rate into a duration.
func FramesToDuration(frames, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}

	return time.Duration(float64(frames) / float64(rate) * float64(time.Second))
}

// DurationToFrames converts d into a frame index at rate, truncating.
func DurationToFrames(d time.Duration, rate int) int {
	return int(d.Seconds() * float64(rate))
}
