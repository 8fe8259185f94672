// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/capo/utils"
)

// Render16 converts src to targetRate and channels and collects the whole
// stream as interleaved 16-bit PCM.
//
// The pipeline is:
//  1. NewResampler to targetRate (skipped when the rate already matches)
//  2. NewChannelMixer to the requested channel count
//  3. utils.Float32ToInt16 on every sample
//
// bufferSize is the read chunk in samples and is rounded down to whole frames.
//
// Example:
//
//	src, _ := wav.Decoder{}.Decode(file)
//	pcm16, err := audio.Render16(src, 8000, 1, 4096)
func Render16(src Source, targetRate, channels, bufferSize int) ([]int16, error) {
	var pipeline Source = src
	if src.SampleRate() != targetRate {
		pipeline = NewResampler(pipeline, targetRate)
	}
	if pipeline.Channels() != channels {
		pipeline = NewChannelMixer(pipeline, channels)
	}

	bufferSize -= bufferSize % channels
	if bufferSize <= 0 {
		bufferSize = 4096 * channels
	}

	estimated := targetRate * channels * 2
	pcm16 := make([]int16, 0, estimated)
	buf := make([]float32, bufferSize)

	for {
		n, err := pipeline.ReadSamples(buf)
		for i := range n {
			pcm16 = append(pcm16, utils.Float32ToInt16(buf[i]))
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}

	return pcm16, nil
}
