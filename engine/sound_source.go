// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/backend"
)

// SoundSource plays a clip that was uploaded whole into one backend
// buffer. It needs no refilling, so the poller never sees it.
type SoundSource struct {
	base

	buffer backend.BufferID
	clip   audio.Clip
}

func newSoundSource(dev *Device) (*SoundSource, error) {
	s := &SoundSource{}
	if err := s.init(dev); err != nil {
		return nil, err
	}

	return s, nil
}

// Bind uploads clip into a fresh buffer and swaps it in. On failure the
// previous clip stays bound.
func (s *SoundSource) Bind(clip audio.Clip) error {
	if !clip.Valid() {
		return fmt.Errorf("%w: %w", ErrBindFailed, audio.ErrInvalidClip)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	buf, err := s.b.NewBuffer()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBindFailed, err)
	}
	if err := s.b.Upload(buf, clip); err != nil {
		backend.Check(s.b.DeleteBuffer(buf))
		return fmt.Errorf("%w: %w", ErrBindFailed, err)
	}

	backend.Check(s.b.Stop(s.handle))
	if err := s.b.SetBuffer(s.handle, buf); err != nil {
		backend.Check(s.b.DeleteBuffer(buf))
		return fmt.Errorf("%w: %w", ErrBindFailed, err)
	}
	backend.Check(s.b.Rewind(s.handle))
	if s.buffer != 0 {
		backend.Check(s.b.DeleteBuffer(s.buffer))
	}

	s.buffer = buf
	s.clip = clip
	s.bound = true
	s.end.wake()

	s.logger.Debug("clip bound",
		"rate", clip.SampleRate,
		"channels", clip.Channels,
		"frames", clip.FrameCount(),
	)

	return nil
}

// Unbind stops the clip and frees its buffer.
func (s *SoundSource) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.bound || s.closed {
		return
	}
	s.detachLocked()
	backend.Check(s.b.Rewind(s.handle))
	s.end.wake()
}

func (s *SoundSource) detachLocked() {
	backend.Check(s.b.Stop(s.handle))
	backend.Check(s.b.SetBuffer(s.handle, 0))
	if s.buffer != 0 {
		backend.Check(s.b.DeleteBuffer(s.buffer))
	}

	s.buffer = 0
	s.clip = audio.Clip{}
	s.bound = false
}

// State asks the backend. Unbound and closed sources are StateIdle.
func (s *SoundSource) State() backend.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stateLocked()
}

func (s *SoundSource) stateLocked() backend.State {
	if !s.bound || s.closed {
		return backend.StateIdle
	}
	st, err := s.b.State(s.handle)
	if !backend.Check(err) {
		return backend.StateUnknown
	}

	return st
}

// IsPlaying reports whether State is StatePlaying.
func (s *SoundSource) IsPlaying() bool { return s.State() == backend.StatePlaying }

// Play starts the clip, restarting it when it is already playing, or
// resumes it when paused.
func (s *SoundSource) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.bound || s.closed {
		return
	}

	// the backend calls this from its own goroutine, so it only touches
	// the end signal; a callback still in flight from the previous run is
	// ignored
	run := s.end.reset()
	backend.Check(s.b.OnEnd(s.handle, func() { s.end.finishRun(run) }))
	backend.Check(s.b.Play(s.handle))
}

// Pause holds the clip at its current frame.
func (s *SoundSource) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.bound || s.closed {
		return
	}
	backend.Check(s.b.Pause(s.handle))
}

// Stop halts the clip and wakes anyone in WaitUntilEnded.
func (s *SoundSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.bound || s.closed {
		return
	}
	backend.Check(s.b.Stop(s.handle))
	s.end.wake()
}

// Seek moves the play head. On a source that is not playing the new
// position takes effect on the next Play.
func (s *SoundSource) Seek(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.bound || s.closed {
		return nil
	}

	total := s.clip.Duration()
	if d < 0 || d > total {
		return fmt.Errorf("%w: %v not in [0, %v]", ErrSeekOutOfRange, d, total)
	}
	frame := min(audio.DurationToFrames(d, s.clip.SampleRate), s.clip.FrameCount()-1)
	backend.Check(s.b.SetSampleOffset(s.handle, frame))

	return nil
}

// CanSeek is true whenever a clip is bound.
func (s *SoundSource) CanSeek() bool { return s.IsBound() }

// Cursor is the backend play head of the bound clip.
func (s *SoundSource) Cursor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.bound || s.closed {
		return 0
	}
	offset, err := s.b.SampleOffset(s.handle)
	if !backend.Check(err) {
		return 0
	}

	return audio.FramesToDuration(offset, s.clip.SampleRate)
}

// Duration is the length of the bound clip.
func (s *SoundSource) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.bound {
		return 0
	}

	return s.clip.Duration()
}

// AtEnd reports whether the clip last stopped by running out.
func (s *SoundSource) AtEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.bound && s.end.hasEnded() && s.stateLocked() == backend.StateStopped
}

// SetLooping makes the clip wrap to its first frame instead of ending.
func (s *SoundSource) SetLooping(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	backend.Check(s.b.SetLooping(s.handle, loop))
}

// IsLooping reports the backend loop flag.
func (s *SoundSource) IsLooping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loopingLocked()
}

func (s *SoundSource) loopingLocked() bool {
	if s.closed {
		return false
	}
	loop, err := s.b.Looping(s.handle)

	return backend.Check(err) && loop
}

// CanWaitUntilEnded reports whether the clip is playing and not looping.
func (s *SoundSource) CanWaitUntilEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.canWaitLocked()
}

func (s *SoundSource) canWaitLocked() bool {
	return s.bound && !s.loopingLocked() && s.stateLocked() == backend.StatePlaying
}

// WaitUntilEnded blocks until the clip ends or is stopped, or ctx is done.
func (s *SoundSource) WaitUntilEnded(ctx context.Context) error {
	s.mu.Lock()
	if !s.canWaitLocked() {
		s.mu.Unlock()
		return nil
	}
	done := s.end.done()
	s.mu.Unlock()

	return waitFor(ctx, done)
}

// Close stops the clip and frees its backend objects.
func (s *SoundSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.detachLocked()
	s.releaseLocked()
	s.mu.Unlock()

	s.dev.forget(s.id)
	s.logger.Debug("sound source closed")

	return nil
}
