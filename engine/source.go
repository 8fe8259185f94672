// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/backend"
	"github.com/ik5/capo/utils"
)

// Source is the control surface shared by SoundSource and StreamSource.
type Source interface {
	ID() uuid.UUID

	IsBound() bool
	Unbind()

	State() backend.State
	IsPlaying() bool
	Play()
	Pause()
	Stop()

	// Seek moves playback to d. A target outside [0, Duration()] yields
	// ErrSeekOutOfRange and leaves the position unchanged.
	Seek(d time.Duration) error
	CanSeek() bool
	Cursor() time.Duration
	Duration() time.Duration
	AtEnd() bool

	SetLooping(loop bool)
	IsLooping() bool

	// CanWaitUntilEnded reports whether WaitUntilEnded would block: the
	// source is playing and not looping.
	CanWaitUntilEnded() bool
	// WaitUntilEnded blocks until playback stops or ctx is done.
	WaitUntilEnded(ctx context.Context) error

	Gain() float32
	SetGain(v float32)
	Pitch() float32
	SetPitch(v float32)
	Pan() float32
	SetPan(v float32)
	MaxDistance() float32
	SetMaxDistance(v float32)
	Position() backend.Vec3
	SetPosition(v backend.Vec3)
	Velocity() backend.Vec3
	SetVelocity(v backend.Vec3)

	// FadeIn ramps the gain from silence to gain over d. A negative gain
	// fades to the current gain. It reports false on an unbound source.
	FadeIn(d time.Duration, gain float32) bool
	// FadeOut ramps the current gain to silence over d.
	FadeOut(d time.Duration) bool

	Close() error
}

var (
	_ Source = (*SoundSource)(nil)
	_ Source = (*StreamSource)(nil)
)

// base holds what both source kinds share: the backend handle, the lock
// that serializes every backend call on it, and the end signal.
type base struct {
	mu sync.Mutex

	id     uuid.UUID
	dev    *Device
	b      backend.Backend
	handle backend.SourceID
	end    *endSignal
	logger *log.Logger

	bound  bool
	closed bool
}

func (s *base) init(dev *Device) error {
	h, err := dev.backend.NewSource()
	if err != nil {
		return err
	}

	s.id = uuid.New()
	s.dev = dev
	s.b = dev.backend
	s.handle = h
	s.end = newEndSignal()
	s.logger = dev.logger.With("source", s.id)

	return nil
}

// ID identifies the source within its device.
func (s *base) ID() uuid.UUID { return s.id }

// IsBound reports whether a clip or stream is bound.
func (s *base) IsBound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.bound
}

func (s *base) float(p backend.Param, def float32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return def
	}
	v, err := s.b.Float(s.handle, p)
	if !backend.Check(err) {
		return def
	}

	return v
}

func (s *base) setFloat(p backend.Param, v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	backend.Check(s.b.SetFloat(s.handle, p, v))
}

func (s *base) vec3(p backend.Param) backend.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return backend.Vec3{}
	}
	v, err := s.b.Vec3(s.handle, p)
	if !backend.Check(err) {
		return backend.Vec3{}
	}

	return v
}

func (s *base) setVec3(p backend.Param, v backend.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	backend.Check(s.b.SetVec3(s.handle, p, v))
}

// Gain is 1 on a closed source.
func (s *base) Gain() float32 { return s.float(backend.ParamGain, 1) }

// SetGain clamps v to [0, 1].
func (s *base) SetGain(v float32) { s.setFloat(backend.ParamGain, utils.Clamp(v, 0, 1)) }

// Pitch scales playback speed; 1 is normal.
func (s *base) Pitch() float32     { return s.float(backend.ParamPitch, 1) }
func (s *base) SetPitch(v float32) { s.setFloat(backend.ParamPitch, v) }

func (s *base) Pan() float32 { return s.float(backend.ParamPan, 0) }

// SetPan clamps v to [-1, 1], full left to full right.
func (s *base) SetPan(v float32) { s.setFloat(backend.ParamPan, utils.Clamp(v, -1, 1)) }

// MaxDistance is the distance past which attenuation stops.
func (s *base) MaxDistance() float32 {
	return s.float(backend.ParamMaxDistance, math.MaxFloat32)
}

func (s *base) SetMaxDistance(v float32) { s.setFloat(backend.ParamMaxDistance, v) }

// Position and Velocity place the source relative to the listener.
func (s *base) Position() backend.Vec3     { return s.vec3(backend.ParamPosition) }
func (s *base) SetPosition(v backend.Vec3) { s.setVec3(backend.ParamPosition, v) }
func (s *base) Velocity() backend.Vec3     { return s.vec3(backend.ParamVelocity) }
func (s *base) SetVelocity(v backend.Vec3) { s.setVec3(backend.ParamVelocity, v) }

// FadeIn ramps the gain from silence to gain over d. A negative gain
// fades to the current gain.
func (s *base) FadeIn(d time.Duration, gain float32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.bound || s.closed {
		return false
	}
	if gain < 0 {
		current, err := s.b.Float(s.handle, backend.ParamGain)
		if !backend.Check(err) {
			return false
		}
		gain = current
	}

	return s.fadeLocked(0, utils.Clamp(gain, 0, 1), d)
}

// FadeOut ramps the current gain to silence over d.
func (s *base) FadeOut(d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.bound || s.closed {
		return false
	}
	current, err := s.b.Float(s.handle, backend.ParamGain)
	if !backend.Check(err) {
		return false
	}

	return s.fadeLocked(current, 0, d)
}

func (s *base) fadeLocked(from, to float32, d time.Duration) bool {
	frames := audio.DurationToFrames(d, s.b.SampleRate())
	return backend.Check(s.b.Fade(s.handle, from, to, frames))
}

// release frees the backend source and wakes waiters. Callers hold mu and
// have already detached every buffer.
func (s *base) releaseLocked() {
	s.closed = true
	s.bound = false
	backend.Check(s.b.DeleteSource(s.handle))
	s.end.wake()
}

// waitFor blocks on done or ctx.
func waitFor(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
