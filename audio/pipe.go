// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
)

// PushFunc appends freshly produced samples to *out.
// Returning io.EOF ends the stream after the appended samples are drained.
type PushFunc func(out *[]Sample) error

// Pipe adapts a push-style producer into a pull Source.
//
// Whenever a read finds the internal queue empty it asks the producer for
// more. Pushed batches may be any size; the pipe hands them out in the
// sizes readers ask for.
type Pipe struct {
	sampleRate int
	channels   int
	push       PushFunc

	buffer  []Sample
	staging []Sample
	done    bool
	closed  bool
}

func NewPipe(sampleRate, channels int, push PushFunc) *Pipe {
	return &Pipe{
		sampleRate: sampleRate,
		channels:   channels,
		push:       push,
	}
}

func (p *Pipe) SampleRate() int { return p.sampleRate }
func (p *Pipe) Channels() int   { return p.channels }

func (p *Pipe) Close() error {
	p.closed = true
	p.buffer = nil
	return nil
}

// Buffered is the number of samples pushed but not yet read.
func (p *Pipe) Buffered() int { return len(p.buffer) }

func (p *Pipe) ReadSamples(dst []float32) (int, error) {
	if p.closed {
		return 0, ErrPipeClosed
	}

	n := p.drain(dst)
	for n < len(dst) && !p.done {
		p.staging = p.staging[:0]
		err := p.push(&p.staging)
		p.buffer = append(p.buffer, p.staging...)
		if errors.Is(err, io.EOF) {
			p.done = true
		} else if err != nil {
			return n, err
		}

		if len(p.staging) == 0 && !p.done {
			// producer has nothing right now
			break
		}
		n += p.drain(dst[n:])
	}

	if p.done && len(p.buffer) == 0 {
		return n, io.EOF
	}

	return n, nil
}

func (p *Pipe) drain(out []float32) int {
	n := copy(out, p.buffer)
	p.buffer = p.buffer[:copy(p.buffer, p.buffer[n:])]
	return n
}
