// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/capo/utils"
)

const (
	resampleChunkFrames = 1024
	// history kept behind the read head once it is compacted
	resampleKeepFrames = 1
	// one-pole low-pass coefficient used when downsampling
	lowpassAlpha = 0.5
)

// Resampler converts a source to another sample rate with cubic
// interpolation over interleaved frames. The channel count is preserved.
// When downsampling, input frames pass through a one-pole low-pass first.
//
// Source frames are pulled in blocks into a history window; the read head
// is a fractional source frame index advanced by step per output frame.
type Resampler struct {
	src      Source
	channels int
	rate     int
	step     float64

	hist  []float32 // source frames starting at frame base
	base  int
	head  float64
	chunk []float32
	eof   bool

	lowpass []float32 // nil unless downsampling
	primed  bool

	produced int // output frames handed out since the last seek
}

// NewResampler returns a Resampler producing dstRate. When dstRate equals the
// source rate the output still goes through interpolation at step 1.
func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()

	r := &Resampler{
		src:      src,
		channels: channels,
		rate:     dstRate,
		step:     float64(src.SampleRate()) / float64(dstRate),
		chunk:    make([]float32, resampleChunkFrames*channels),
	}
	if r.step > 1 {
		r.lowpass = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

// frames held in the history window
func (r *Resampler) held() int { return len(r.hist) / r.channels }

// fill pulls source blocks until frame upto is held or the source ends.
func (r *Resampler) fill(upto int) error {
	for !r.eof && r.base+r.held() <= upto {
		n, err := r.src.ReadSamples(r.chunk)
		n -= n % r.channels
		if n > 0 {
			r.filter(r.chunk[:n])
			r.hist = append(r.hist, r.chunk[:n]...)
		}

		switch {
		case err == io.EOF:
			r.eof = true
		case err != nil:
			return fmt.Errorf("%w", err)
		case n == 0:
			// a live source with nothing buffered; try again next read
			return nil
		}
	}

	return nil
}

func (r *Resampler) filter(samples []float32) {
	if r.lowpass == nil {
		return
	}
	if !r.primed {
		// start from the first frame to avoid a fade-in transient
		copy(r.lowpass, samples[:r.channels])
		r.primed = true
	}

	for i := 0; i < len(samples); i += r.channels {
		for c := range r.channels {
			v := lowpassAlpha*samples[i+c] + (1-lowpassAlpha)*r.lowpass[c]
			r.lowpass[c] = v
			samples[i+c] = v
		}
	}
}

// at returns sample c of source frame i, clamped to the held window.
func (r *Resampler) at(i, c int) float32 {
	i = min(max(i-r.base, 0), r.held()-1)
	return r.hist[i*r.channels+c]
}

// compact drops history the interpolator can no longer reach.
func (r *Resampler) compact() {
	drop := int(r.head) - resampleKeepFrames - r.base
	if drop < resampleChunkFrames {
		return
	}

	n := copy(r.hist, r.hist[drop*r.channels:])
	r.hist = r.hist[:n]
	r.base += drop
}

// ReadSamples produces dst samples at the target rate.
// dst length must be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	want := len(dst) / r.channels
	written := 0

	for written < want {
		i := int(r.head)
		if err := r.fill(i + 2); err != nil {
			return written * r.channels, err
		}

		// interpolation needs frame i and its right neighbour
		if r.base+r.held() < i+2 {
			if r.eof && written == 0 {
				return 0, io.EOF
			}
			break
		}

		frac := float32(r.head - float64(i))
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(r.at(i-1, c), r.at(i, c), r.at(i+1, c), r.at(i+2, c), frac)
		}

		written++
		r.head += r.step
	}

	r.produced += written
	r.compact()

	return written * r.channels, nil
}

// SeekToSample moves to output sample i by seeking the source to the
// matching source frame. It fails with ErrSeekUnsupported when the source
// cannot seek.
func (r *Resampler) SeekToSample(i int) error {
	if i < 0 {
		return ErrSeekOutOfRange
	}

	frame := i / r.channels
	head := float64(frame) * r.step
	srcFrame := int(head)

	if err := Seek(r.src, srcFrame*r.channels); err != nil {
		return err
	}

	r.hist = r.hist[:0]
	r.base = srcFrame
	r.head = head
	r.eof = false
	r.primed = false
	r.produced = frame

	return nil
}

// Position reports the next output sample. It is only known when the
// source reports its own position.
func (r *Resampler) Position() (int, bool) {
	if _, ok := Position(r.src); !ok {
		return 0, false
	}

	return r.produced * r.channels, true
}

// SampleCount estimates the output length from the source length, or 0
// when the source length is unknown.
func (r *Resampler) SampleCount() int {
	frames := SampleCount(r.src) / r.channels
	if frames == 0 {
		return 0
	}

	return int(float64(frames)/r.step) * r.channels
}
