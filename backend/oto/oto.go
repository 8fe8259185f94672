// SPDX-License-Identifier: EPL-2.0

// Package oto plays the software mixer through github.com/ebitengine/oto/v3.
//
// oto allows one context per process. The first backend created fixes the
// output rate and channel count; later backends must ask for the same
// format or New fails.
package oto

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
	"github.com/ik5/capo/backend"
	"github.com/ik5/capo/backend/soft"
)

var (
	contextMu sync.Mutex
	shared    *oto.Context
	sharedCfg backend.Config
)

func otoFormat(f backend.SampleFormat) oto.Format {
	if f == backend.FormatS16 {
		return oto.FormatSignedInt16LE
	}

	return oto.FormatFloat32LE
}

func openContext(cfg backend.Config) (*oto.Context, error) {
	contextMu.Lock()
	defer contextMu.Unlock()

	if shared != nil {
		if sharedCfg.SampleRate != cfg.SampleRate || sharedCfg.Channels != cfg.Channels || sharedCfg.Format != cfg.Format {
			return nil, fmt.Errorf("%w: oto context already open at %dHz %dch %s",
				backend.ErrInvalidDevice, sharedCfg.SampleRate, sharedCfg.Channels, sharedCfg.Format)
		}
		return shared, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       otoFormat(cfg.Format),
		BufferSize:   cfg.BufferDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create oto context: %w", backend.ErrInvalidDevice, err)
	}
	<-ready

	shared, sharedCfg = ctx, cfg

	return ctx, nil
}

// Backend is a soft.Mixer whose output feeds an oto player.
type Backend struct {
	*soft.Mixer

	player *oto.Player
	logger *log.Logger
}

var _ backend.Backend = (*Backend)(nil)

// New opens the oto context and starts a player that pulls from the mixer.
func New(cfg backend.Config, logger *log.Logger) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	ctx, err := openContext(cfg)
	if err != nil {
		return nil, err
	}

	mixer := soft.New(cfg.SampleRate, cfg.Channels)
	player := ctx.NewPlayer(&reader{mixer: mixer, format: cfg.Format})
	player.SetBufferSize(cfg.BufferFrames() * cfg.Channels * cfg.Format.BytesPerSample())
	player.Play()

	logger.Info("audio output initialized", "backend", backend.Oto,
		"sample_rate", cfg.SampleRate, "channels", cfg.Channels, "format", cfg.Format)

	return &Backend{Mixer: mixer, player: player, logger: logger}, nil
}

// Err reports an asynchronous playback failure of the player, if any.
func (b *Backend) Err() error {
	return b.player.Err()
}

func (b *Backend) Close() error {
	err := b.player.Close()
	if cerr := b.Mixer.Close(); err == nil {
		err = cerr
	}

	return err
}

// reader adapts the mixer to the io.Reader oto pulls from. It never ends:
// with nothing playing it yields silence.
type reader struct {
	mixer   *soft.Mixer
	format  backend.SampleFormat
	scratch []float32
}

func (r *reader) Read(p []byte) (int, error) {
	return r.mixer.RenderBytes(p, r.format, &r.scratch), nil
}

func init() {
	backend.Register(backend.Oto, func(cfg backend.Config, logger *log.Logger) (backend.Backend, error) {
		return New(cfg, logger)
	})
}
