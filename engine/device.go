// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/ik5/capo/backend"
	"github.com/ik5/capo/backend/null"
)

// Device owns a backend, the poller that refills its stream sources and
// the listener every source is heard through.
type Device struct {
	backend  backend.Backend
	logger   *log.Logger
	interval time.Duration
	poller   *poller

	mu      sync.Mutex
	sources map[uuid.UUID]Source
	closed  bool
}

func newDevice(opts []Option) *Device {
	d := &Device{
		logger:   log.Default().With("component", "engine"),
		interval: DefaultPollInterval,
		sources:  make(map[uuid.UUID]Source),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// NewDevice opens the backend cfg names. When it cannot be opened and
// cfg.Fallback is set, the device runs on the null backend instead and
// plays nothing; otherwise the error wraps ErrInvalidDevice.
func NewDevice(cfg backend.Config, opts ...Option) (*Device, error) {
	d := newDevice(opts)

	b, err := backend.New(cfg, d.logger)
	if err != nil {
		if !cfg.Fallback || errors.Is(err, backend.ErrInvalidConfig) {
			if errors.Is(err, ErrInvalidDevice) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidDevice, err)
		}

		d.logger.Warn("failed to initialize audio library, using null device",
			"backend", cfg.Backend,
			"err", err,
		)
		b = null.New(cfg.SampleRate, cfg.Channels)
	}

	d.start(b)

	return d, nil
}

// NewDeviceWith runs a device on an existing backend. The device takes
// ownership and closes b with itself.
func NewDeviceWith(b backend.Backend, opts ...Option) (*Device, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrInvalidDevice)
	}

	d := newDevice(opts)
	d.start(b)

	return d, nil
}

func (d *Device) start(b backend.Backend) {
	d.backend = b
	d.poller = newPoller(d.interval)
	d.logger.Debug("device ready", "sample_rate", b.SampleRate(), "poll", d.interval)
}

// Valid reports whether the device is open.
func (d *Device) Valid() bool {
	if d == nil {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	return !d.closed
}

// Backend is the backend the device opened, possibly the null fallback.
func (d *Device) Backend() backend.Backend { return d.backend }

// SampleRate is the rate the backend mixes at.
func (d *Device) SampleRate() int { return d.backend.SampleRate() }

// Close closes every source, stops the poller and closes the backend.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	sources := slices.Collect(maps.Values(d.sources))
	d.mu.Unlock()

	for _, s := range sources {
		_ = s.Close()
	}
	d.poller.close()

	if err := d.backend.Close(); err != nil {
		return fmt.Errorf("close backend: %w", err)
	}
	d.logger.Debug("device closed", "sources", len(sources))

	return nil
}

// NewSoundSource creates an unbound source for whole clips.
func (d *Device) NewSoundSource() (*SoundSource, error) {
	if !d.Valid() {
		return nil, ErrClosed
	}

	s, err := newSoundSource(d)
	if err != nil {
		return nil, fmt.Errorf("new sound source: %w", err)
	}
	if err := d.register(s); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// NewStreamSource creates an unbound stream source and hands it to the
// poller.
func (d *Device) NewStreamSource() (*StreamSource, error) {
	if !d.Valid() {
		return nil, ErrClosed
	}

	s, err := newStreamSource(d)
	if err != nil {
		return nil, fmt.Errorf("new stream source: %w", err)
	}
	if err := d.register(s); err != nil {
		_ = s.Close()
		return nil, err
	}
	d.poller.track(s.id, s)

	return s, nil
}

func (d *Device) register(s Source) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	d.sources[s.ID()] = s

	return nil
}

func (d *Device) forget(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.sources, id)
}

// Listener

// Gain is the listener gain applied to the whole mix.
func (d *Device) Gain() float32 {
	v, err := d.backend.ListenerGain()
	if !backend.Check(err) {
		return 1
	}

	return v
}

func (d *Device) SetGain(v float32) { backend.Check(d.backend.SetListenerGain(v)) }

func (d *Device) Position() backend.Vec3 {
	v, err := d.backend.ListenerPosition()
	if !backend.Check(err) {
		return backend.Vec3{}
	}

	return v
}

func (d *Device) SetPosition(v backend.Vec3) { backend.Check(d.backend.SetListenerPosition(v)) }

func (d *Device) Velocity() backend.Vec3 {
	v, err := d.backend.ListenerVelocity()
	if !backend.Check(err) {
		return backend.Vec3{}
	}

	return v
}

func (d *Device) SetVelocity(v backend.Vec3) { backend.Check(d.backend.SetListenerVelocity(v)) }

func (d *Device) Orientation() backend.Orientation {
	o, err := d.backend.ListenerOrientation()
	if !backend.Check(err) {
		return backend.DefaultOrientation
	}

	return o
}

func (d *Device) SetOrientation(o backend.Orientation) {
	backend.Check(d.backend.SetListenerOrientation(o))
}
