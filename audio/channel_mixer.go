// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelMixer converts the channel layout of a Source.
//
// Down-mixing to mono averages every channel. Up-mixing from mono copies
// the sample to every output channel. Other layouts fold source channel c
// into output channel c % target and average each bucket.
type ChannelMixer struct {
	src    Source
	target int
	tmp    []float32
}

func NewChannelMixer(src Source, channels int) *ChannelMixer {
	if channels < 1 {
		channels = 1
	}

	return &ChannelMixer{
		src:    src,
		target: channels,
		tmp:    make([]float32, 4096),
	}
}

// NewMonoMixer down-mixes src to a single channel.
func NewMonoMixer(src Source) *ChannelMixer {
	return NewChannelMixer(src, 1)
}

func (m *ChannelMixer) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMixer) Channels() int   { return m.target }
func (m *ChannelMixer) Close() error {
	err := m.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (m *ChannelMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	if channels == m.target {
		return m.src.ReadSamples(dst)
	}
	if len(dst)%m.target != 0 {
		return 0, ErrInvalidDstSize
	}

	maxFrames := len(dst) / m.target
	samplesNeeded := maxFrames * channels

	// Grow tmp buffer if needed (but don't shrink to avoid thrashing)
	if cap(m.tmp) < samplesNeeded {
		m.tmp = make([]float32, max(samplesNeeded, 8192))
	}
	m.tmp = m.tmp[:samplesNeeded]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	frames := n / channels

	switch {
	case m.target == 1 && channels == 2:
		for f := range frames {
			idx := f << 1
			dst[f] = (m.tmp[idx] + m.tmp[idx+1]) * 0.5
		}
	case m.target == 1:
		inv := float32(1.0) / float32(channels)
		for f := range frames {
			sum := float32(0)
			base := f * channels
			for c := range channels {
				sum += m.tmp[base+c]
			}
			dst[f] = sum * inv
		}
	case channels == 1:
		for f := range frames {
			v := m.tmp[f]
			base := f * m.target
			for c := range m.target {
				dst[base+c] = v
			}
		}
	default:
		m.fold(dst, frames, channels)
	}

	return frames * m.target, err
}

func (m *ChannelMixer) fold(dst []float32, frames, channels int) {
	counts := make([]float32, m.target)
	for c := range channels {
		counts[c%m.target]++
	}

	for f := range frames {
		out := dst[f*m.target : (f+1)*m.target]
		clear(out)
		base := f * channels
		for c := range channels {
			out[c%m.target] += m.tmp[base+c]
		}
		for c := range out {
			if counts[c] > 0 {
				out[c] /= counts[c]
			}
		}
	}
}

// SeekToSample takes an index in the mixed layout and forwards it to the
// source in its own layout.
func (m *ChannelMixer) SeekToSample(i int) error {
	return Seek(m.src, i/m.target*m.src.Channels())
}

func (m *ChannelMixer) Position() (int, bool) {
	i, ok := Position(m.src)
	if !ok || m.src.Channels() == 0 {
		return 0, false
	}

	return i / m.src.Channels() * m.target, true
}

func (m *ChannelMixer) SampleCount() int {
	if m.src.Channels() == 0 {
		return 0
	}

	return SampleCount(m.src) / m.src.Channels() * m.target
}
