//go:build malgo

// SPDX-License-Identifier: EPL-2.0

package malgo

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/malgo"
	"github.com/ik5/capo/backend"
	"github.com/ik5/capo/backend/soft"
)

// Backend is a soft.Mixer rendered from the miniaudio data callback.
type Backend struct {
	*soft.Mixer

	ctx    *malgo.AllocatedContext
	device *malgo.Device
	logger *log.Logger

	closeOnce sync.Once
}

var _ backend.Backend = (*Backend)(nil)

func malgoFormat(f backend.SampleFormat) malgo.FormatType {
	if f == backend.FormatS16 {
		return malgo.FormatS16
	}

	return malgo.FormatF32
}

// New opens the default playback device and starts it.
func New(cfg backend.Config, logger *log.Logger) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		logger.Debug("miniaudio", "msg", msg)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize audio library: %w", backend.ErrInvalidDevice, err)
	}

	mixer := soft.New(cfg.SampleRate, cfg.Channels)

	devCfg := malgo.DefaultDeviceConfig(malgo.Playback)
	devCfg.Playback.Format = malgoFormat(cfg.Format)
	devCfg.Playback.Channels = uint32(cfg.Channels)
	devCfg.SampleRate = uint32(cfg.SampleRate)
	devCfg.PeriodSizeInMilliseconds = uint32(max(1, cfg.BufferDuration.Milliseconds()))

	var scratch []float32
	onData := func(out, _ []byte, _ uint32) {
		n := mixer.RenderBytes(out, cfg.Format, &scratch)
		clear(out[n:])
	}

	device, err := malgo.InitDevice(ctx.Context, devCfg, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("%w: failed to open playback device: %w", backend.ErrInvalidDevice, err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("%w: failed to start playback device: %w", backend.ErrInvalidDevice, err)
	}

	logger.Info("audio output initialized", "backend", backend.Malgo,
		"sample_rate", cfg.SampleRate, "channels", cfg.Channels, "format", cfg.Format)

	return &Backend{Mixer: mixer, ctx: ctx, device: device, logger: logger}, nil
}

func (b *Backend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if serr := b.device.Stop(); serr != nil {
			err = serr
		}
		b.device.Uninit()
		if cerr := b.ctx.Uninit(); cerr != nil && err == nil {
			err = cerr
		}
		b.ctx.Free()
		if merr := b.Mixer.Close(); merr != nil && err == nil {
			err = merr
		}
	})

	return err
}

func init() {
	backend.Register(backend.Malgo, func(cfg backend.Config, logger *log.Logger) (backend.Backend, error) {
		return New(cfg, logger)
	})
}
