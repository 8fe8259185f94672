// SPDX-License-Identifier: EPL-2.0

package beepio

import (
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/ik5/capo/audio"
)

// Streamer plays an audio.Source as a beep.Streamer. Sources with more
// than two channels are folded to stereo.
type Streamer struct {
	src      audio.Source
	channels int
	buf      []float32
	err      error
}

var _ beep.Streamer = (*Streamer)(nil)

func NewStreamer(src audio.Source) *Streamer {
	if src.Channels() > 2 {
		src = audio.NewChannelMixer(src, 2)
	}

	return &Streamer{src: src, channels: src.Channels()}
}

// Format describes the samples Stream produces.
func (s *Streamer) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(s.src.SampleRate()),
		NumChannels: s.channels,
		Precision:   4,
	}
}

func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil || s.channels == 0 {
		return 0, false
	}

	need := len(samples) * s.channels
	if cap(s.buf) < need {
		s.buf = make([]float32, need)
	}

	n, err := audio.ReadFull(s.src, s.buf[:need])
	frames := n / s.channels
	for i := range frames {
		if s.channels == 1 {
			v := float64(s.buf[i])
			samples[i] = [2]float64{v, v}
			continue
		}
		samples[i] = [2]float64{float64(s.buf[2*i]), float64(s.buf[2*i+1])}
	}

	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		if frames == 0 {
			return 0, false
		}
	}

	return frames, true
}

// Err is the first read error other than io.EOF.
func (s *Streamer) Err() error { return s.err }
