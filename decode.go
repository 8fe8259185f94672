// SPDX-License-Identifier: EPL-2.0

package capo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/formats/aiff"
	"github.com/ik5/capo/formats/flac"
	"github.com/ik5/capo/formats/mp3"
	"github.com/ik5/capo/formats/vorbis"
	"github.com/ik5/capo/formats/wav"
	"golang.org/x/sync/errgroup"
)

var decoders = newRegistry()

func newRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register(HintWav.String(), wav.Decoder{})
	reg.Register(HintMp3.String(), mp3.Decoder{})
	reg.Register(HintFlac.String(), flac.Decoder{})
	reg.Register(HintVorbis.String(), vorbis.Decoder{})
	reg.Register(HintAiff.String(), aiff.Decoder{})

	return reg
}

func hintFromName(name string) Hint {
	for _, h := range Hints {
		if h.String() == name {
			return h
		}
	}

	return HintUnknown
}

// NewSource opens data as a streaming source. A known hint uses that decoder
// only; HintUnknown tries the sniffed format first and then every format in
// Hint order.
func NewSource(data []byte, hint Hint) (audio.Source, Hint, error) {
	open := func() io.Reader { return bytes.NewReader(data) }

	if hint != HintUnknown {
		dec, ok := decoders.Get(hint.String())
		if !ok {
			return nil, hint, fmt.Errorf("%w: %s", ErrUnsupportedFormat, hint)
		}
		src, err := dec.Decode(open())
		if err != nil {
			return nil, hint, fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, hint, err)
		}
		return src, hint, nil
	}

	if sniffed := Sniff(data); sniffed != HintUnknown {
		if src, _, err := NewSource(data, sniffed); err == nil {
			return src, sniffed, nil
		}
	}

	src, name, err := decoders.DecodeAny(open)
	if err != nil {
		return nil, HintUnknown, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	return src, hintFromName(name), nil
}

// Decode fully decodes data into memory.
// It returns the hint of the decoder that accepted the data.
func Decode(data []byte, hint Hint) (*audio.Pcm, Hint, error) {
	src, found, err := NewSource(data, hint)
	if err != nil {
		return nil, found, err
	}
	defer src.Close()

	pcm, err := audio.ReadAll(src)
	if err != nil {
		return nil, found, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, found, err)
	}
	if !pcm.Clip().Valid() {
		return nil, found, fmt.Errorf("%w: %s: %w", ErrDecodeFailed, found, audio.ErrInvalidClip)
	}

	return pcm, found, nil
}

// DecodeFile reads and decodes path. HintUnknown is replaced by the hint
// of the file extension when it has a known one.
func DecodeFile(path string, hint Hint) (*audio.Pcm, Hint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, hint, fmt.Errorf("reading %s: %w", path, err)
	}
	inferred := hint == HintUnknown
	if inferred {
		hint = HintFromPath(path)
	}

	pcm, found, err := Decode(data, hint)
	if err != nil && inferred && hint != HintUnknown {
		pcm, found, err = Decode(data, HintUnknown)
	}
	if err != nil {
		return nil, found, fmt.Errorf("%s: %w", path, err)
	}

	return pcm, found, nil
}

// Decoded is one result of DecodeFiles.
type Decoded struct {
	Path string
	Hint Hint
	Pcm  *audio.Pcm
}

// DecodeFiles decodes paths concurrently and returns the results in the
// order given. The first failure cancels the rest.
func DecodeFiles(ctx context.Context, paths []string) ([]Decoded, error) {
	out := make([]Decoded, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			pcm, hint, err := DecodeFile(path, HintUnknown)
			if err != nil {
				return err
			}
			out[i] = Decoded{Path: path, Hint: hint, Pcm: pcm}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// Open decodes path lazily. The returned source owns no file handle; the
// compressed bytes stay in memory and samples are produced as they are read.
func Open(path string) (audio.Source, Hint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, HintUnknown, fmt.Errorf("reading %s: %w", path, err)
	}

	src, hint, err := NewSource(data, HintFromPath(path))
	if err != nil && HintFromPath(path) != HintUnknown {
		// the extension lied, try everything
		src, hint, err = NewSource(data, HintUnknown)
	}
	if err != nil {
		return nil, hint, fmt.Errorf("%s: %w", path, err)
	}

	return src, hint, nil
}
