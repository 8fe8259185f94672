// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
)

// Pcm owns decoded samples. Clips and streams made from it alias its
// storage, so it must stay alive while they are in use.
type Pcm struct {
	Samples    []Sample
	SampleRate int
	Channels   Channels
}

// Clip returns a view over the whole buffer.
func (p *Pcm) Clip() Clip {
	if p == nil {
		return Clip{}
	}

	return Clip{Samples: p.Samples, SampleRate: p.SampleRate, Channels: p.Channels}
}

// Stream returns a fresh cursor over the buffer.
func (p *Pcm) Stream() *Stream {
	return NewStream(p.Clip())
}

// SizeBytes is the memory held by the samples.
func (p *Pcm) SizeBytes() uint64 {
	return uint64(len(p.Samples)) * 4
}

// ReadAll drains src into a new Pcm. Layouts wider than stereo are folded
// down to stereo through a ChannelMixer. src is not closed.
func ReadAll(src Source) (*Pcm, error) {
	if src.Channels() > 2 {
		src = NewChannelMixer(src, 2)
	}
	channels := ToChannels(src.Channels())
	if channels == ChannelsNone {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupported, src.Channels())
	}

	size := SampleCount(src)
	if size <= 0 {
		size = src.SampleRate() * int(channels)
	}
	samples := make([]Sample, 0, size)

	chunk := make([]float32, 4096*int(channels))
	for {
		n, err := ReadFull(src, chunk)
		samples = append(samples, chunk[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples: %w", err)
		}
	}

	// drop a trailing partial frame
	samples = samples[:len(samples)-len(samples)%int(channels)]

	return &Pcm{Samples: samples, SampleRate: src.SampleRate(), Channels: channels}, nil
}
