// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"sync"
)

// Source is a pull stream of interleaved PCM samples.
type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	// Close releases any resources.
	Close() error
}

// Seeker is implemented by sources that can reposition their read cursor.
// SeekToSample takes an interleaved sample index (frame * channels) and
// returns ErrSeekOutOfRange when the index is past the end.
type Seeker interface {
	SeekToSample(i int) error
}

// Positioner reports the interleaved sample index of the next read.
// ok is false when the source cannot tell.
type Positioner interface {
	Position() (i int, ok bool)
}

// Lengther reports the total number of interleaved samples, 0 when unknown.
type Lengther interface {
	SampleCount() int
}

// Seek repositions src when it supports seeking.
// Sources without a Seeker yield ErrSeekUnsupported.
func Seek(src Source, i int) error {
	s, ok := src.(Seeker)
	if !ok {
		return ErrSeekUnsupported
	}

	return s.SeekToSample(i)
}

// CanSeek reports whether src implements Seeker.
func CanSeek(src Source) bool {
	_, ok := src.(Seeker)
	return ok
}

// Position returns the sample cursor of src if it exposes one.
func Position(src Source) (int, bool) {
	if p, ok := src.(Positioner); ok {
		return p.Position()
	}

	return 0, false
}

// SampleCount returns the total sample count of src, or 0 when unknown.
func SampleCount(src Source) int {
	if l, ok := src.(Lengther); ok {
		return l.SampleCount()
	}

	return 0
}

// ReadFull reads from src until dst is full or the stream ends.
// Unlike a single ReadSamples call it never returns a short count unless
// the source is exhausted, which keeps chunk sizes stable for callers that
// account in whole buffers. err is io.EOF once the source is drained.
func ReadFull(src Source, dst []float32) (int, error) {
	total := 0
	for total < len(dst) {
		n, err := src.ReadSamples(dst[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			// a source that returns nothing without an error is treated as drained
			return total, io.EOF
		}
	}

	return total, nil
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry for decoders by format key (e.g., "wav", "mp3", "flac").
// Names keeps registration order so callers can try formats in priority order.
type Registry struct {
	codecs map[string]Decoder
	order  []string

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if _, ok := r.codecs[format]; !ok {
		r.order = append(r.order, format)
	}
	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[format]
	return d, ok
}

// Names returns the registered format keys in registration order.
func (r *Registry) Names() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	return append([]string(nil), r.order...)
}

// DecodeAny tries every registered decoder in registration order against
// the bytes produced by open, returning the first Source that decodes.
// open is called once per attempt so every decoder sees a fresh reader.
func (r *Registry) DecodeAny(open func() io.Reader) (Source, string, error) {
	var errs []error
	for _, name := range r.Names() {
		d, ok := r.Get(name)
		if !ok {
			continue
		}

		src, err := d.Decode(open())
		if err == nil {
			return src, name, nil
		}
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil, "", ErrNoDecoder
	}

	return nil, "", errors.Join(append([]error{ErrNoDecoder}, errs...)...)
}
