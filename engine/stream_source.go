// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/backend"
)

// StreamSource plays an audio.Source of any length through a small pool
// of backend buffers that the device poller keeps topped up.
type StreamSource struct {
	base

	buffers [BufferCount]backend.BufferID
	free    []backend.BufferID
	queued  []int // first frame of each queued buffer, oldest first
	scratch []float32

	stream     audio.Source
	seekable   bool
	rate       int
	channels   int
	frameCount int // 0 when the length is unknown
	next       int // frame the next read starts at
	eof        bool

	state   backend.State
	looping bool
}

func newStreamSource(dev *Device) (*StreamSource, error) {
	s := &StreamSource{state: backend.StateIdle}
	if err := s.init(dev); err != nil {
		return nil, err
	}

	for i := range s.buffers {
		id, err := s.b.NewBuffer()
		if err != nil {
			for _, made := range s.buffers[:i] {
				backend.Check(s.b.DeleteBuffer(made))
			}
			backend.Check(s.b.DeleteSource(s.handle))
			return nil, err
		}
		s.buffers[i] = id
	}
	s.free = append(s.free, s.buffers[:]...)

	return s, nil
}

// Bind stops playback and replaces the stream. Sources with more than two
// channels are folded to stereo. The caller keeps ownership of src.
func (s *StreamSource) Bind(src audio.Source) error {
	if src == nil || src.SampleRate() <= 0 || src.Channels() <= 0 {
		return fmt.Errorf("%w: stream has no sample format", ErrBindFailed)
	}

	seekable := audio.CanSeek(src)
	if src.Channels() > 2 {
		src = audio.NewChannelMixer(src, 2)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.stream != nil {
		s.stopLocked()
		s.end.wake()
	}

	s.stream = src
	s.seekable = seekable
	s.rate = src.SampleRate()
	s.channels = src.Channels()
	s.frameCount = audio.SampleCount(src) / s.channels
	s.next = 0
	if pos, ok := audio.Position(src); ok {
		s.next = pos / s.channels
	}
	s.eof = false
	s.scratch = make([]float32, FramesPerBuffer*s.channels)
	s.bound = true

	s.logger.Debug("stream bound",
		"rate", s.rate,
		"channels", s.channels,
		"frames", s.frameCount,
		"seekable", s.seekable,
	)

	return nil
}

// BindClip binds a seekable stream over clip. An invalid clip is rejected
// and the current binding is kept.
func (s *StreamSource) BindClip(clip audio.Clip) error {
	if !clip.Valid() {
		return fmt.Errorf("%w: %w", ErrBindFailed, audio.ErrInvalidClip)
	}

	return s.Bind(audio.NewStream(clip))
}

// Unbind stops playback and drops the stream. The buffer pool is kept for
// the next Bind.
func (s *StreamSource) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil || s.closed {
		return
	}

	backend.Check(s.b.Stop(s.handle))
	s.resetPoolLocked()
	backend.Check(s.b.Rewind(s.handle))

	s.stream = nil
	s.bound = false
	s.eof = false
	s.next, s.frameCount = 0, 0
	s.state = backend.StateIdle
	s.end.wake()
}

// State is the last state the source saw. A stream waiting for data
// reports StatePlaying while the backend is stopped.
func (s *StreamSource) State() backend.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// IsPlaying reports whether State is StatePlaying.
func (s *StreamSource) IsPlaying() bool { return s.State() == backend.StatePlaying }

// Play starts or resumes playback. A source that is already playing
// restarts from the first frame; one that finished starts over.
func (s *StreamSource) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil || s.closed {
		return
	}
	if s.state == backend.StatePlaying {
		s.stopLocked()
	}
	s.startLocked()
}

// Pause holds playback with the queued buffers in place.
func (s *StreamSource) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil || s.closed {
		return
	}
	backend.Check(s.b.Pause(s.handle))
	s.syncStateLocked()
}

// Stop halts playback and rewinds the stream when it can seek.
func (s *StreamSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil || s.closed {
		return
	}
	if s.state == backend.StateIdle || s.state == backend.StateStopped {
		return
	}
	s.stopLocked()
	s.end.wake()
}

// Seek moves playback to d and keeps playing if the source was playing.
// A paused source ends up stopped at d. When the stream length is unknown
// the stream itself decides whether d is in range; either way a failed
// seek leaves playback untouched.
func (s *StreamSource) Seek(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil || s.closed {
		return nil
	}
	if !s.seekable {
		return ErrSeekUnsupported
	}

	total := s.durationLocked()
	if d < 0 || (s.frameCount > 0 && d > total) {
		return fmt.Errorf("%w: %v not in [0, %v]", ErrSeekOutOfRange, d, total)
	}
	frame := audio.DurationToFrames(d, s.rate)
	if s.frameCount > 0 && frame >= s.frameCount {
		frame = s.frameCount - 1
	}

	// the queued buffers hold copies, so the backend plays on undisturbed
	// until the stream has accepted the new position
	prev := s.state
	if err := s.seekFrameLocked(frame); err != nil {
		if errors.Is(err, audio.ErrSeekOutOfRange) {
			return fmt.Errorf("%w: %v", ErrSeekOutOfRange, d)
		}
		return err
	}
	s.haltLocked()
	if prev == backend.StatePlaying {
		s.startLocked()
	}

	s.logger.Debug("stream seek", "frame", frame, "state", s.state)

	return nil
}

// Rewind seeks to the start and keeps playing if the source was playing.
func (s *StreamSource) Rewind() error { return s.Seek(0) }

// CanSeek reports whether a stream is bound and it can seek.
func (s *StreamSource) CanSeek() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stream != nil && s.seekable
}

// Cursor estimates the playback position. While buffers are in flight it
// adds the backend offset to the first frame of the oldest queued buffer
// and centres the result within the current frame.
func (s *StreamSource) Cursor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil || s.closed {
		return 0
	}

	if (s.state == backend.StatePlaying || s.state == backend.StatePaused) && len(s.queued) > 0 {
		if !s.looping && s.atEndLocked() {
			// drained, but the poller has not noticed yet
			st, err := s.b.State(s.handle)
			if backend.Check(err) && st == backend.StateStopped {
				return audio.FramesToDuration(s.next, s.rate)
			}
		}

		offset, err := s.b.SampleOffset(s.handle)
		if backend.Check(err) {
			frame := s.queued[0] + offset
			if s.frameCount > 0 {
				if s.looping {
					frame %= s.frameCount
				} else {
					frame = min(frame, s.frameCount)
				}
			}

			cursor := time.Duration((float64(frame) + 0.5) / float64(s.rate) * float64(time.Second))
			if s.frameCount > 0 {
				cursor = min(cursor, s.durationLocked())
			}

			return cursor
		}
	}

	return audio.FramesToDuration(s.next, s.rate)
}

// Duration is zero when the stream length is unknown.
func (s *StreamSource) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.durationLocked()
}

func (s *StreamSource) durationLocked() time.Duration {
	if s.stream == nil || s.frameCount == 0 {
		return 0
	}

	return audio.FramesToDuration(s.frameCount, s.rate)
}

// AtEnd reports whether every frame of the stream has been read.
// After playback finishes on its own it stays true until the next Play.
func (s *StreamSource) AtEnd() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.atEndLocked()
}

func (s *StreamSource) atEndLocked() bool {
	return s.stream != nil && (s.eof || (s.frameCount > 0 && s.next >= s.frameCount))
}

// SetLooping makes the stream restart from its first frame when it runs
// out. Streams that cannot seek stop looping when they reach the end.
func (s *StreamSource) SetLooping(loop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.looping = loop
}

// IsLooping reports the flag set by SetLooping.
func (s *StreamSource) IsLooping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.looping
}

// CanWaitUntilEnded reports whether the source is playing and not looping.
func (s *StreamSource) CanWaitUntilEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.canWaitLocked()
}

func (s *StreamSource) canWaitLocked() bool {
	return s.stream != nil && !s.closed && !s.looping && s.state == backend.StatePlaying
}

// WaitUntilEnded blocks until the stream runs out, playback is stopped or
// ctx is done. It returns at once when CanWaitUntilEnded is false.
func (s *StreamSource) WaitUntilEnded(ctx context.Context) error {
	s.mu.Lock()
	if !s.canWaitLocked() {
		s.mu.Unlock()
		return nil
	}
	done := s.end.done()
	s.mu.Unlock()

	return waitFor(ctx, done)
}

// Close stops playback and frees the backend objects. The bound stream is
// left open.
func (s *StreamSource) Close() error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil
	}

	// after untrack returns no tick is inside update
	s.dev.poller.untrack(s.id)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	backend.Check(s.b.Stop(s.handle))
	s.resetPoolLocked()
	for _, id := range s.buffers {
		backend.Check(s.b.DeleteBuffer(id))
	}
	s.free = nil
	s.stream = nil
	s.state = backend.StateIdle
	s.releaseLocked()
	s.mu.Unlock()

	s.dev.forget(s.id)
	s.logger.Debug("stream source closed")

	return nil
}

// update is the poller's refill step. It unqueues at most one processed
// buffer per call and refills whatever buffers are free.
func (s *StreamSource) update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil || s.closed || s.state != backend.StatePlaying {
		return
	}

	if s.atEndLocked() {
		if !s.looping {
			st, err := s.b.State(s.handle)
			if backend.Check(err) && st == backend.StateStopped {
				s.finishLocked()
			}
			return
		}
		if err := s.seekFrameLocked(0); err != nil {
			s.logger.Warn("stream cannot loop", "err", err)
			s.looping = false
			return
		}
	}

	st, err := s.b.State(s.handle)
	if !backend.Check(err) {
		return
	}
	if st == backend.StateStopped {
		s.recoverLocked()
		return
	}

	processed, err := s.b.Processed(s.handle)
	if !backend.Check(err) {
		return
	}
	if processed > 0 {
		ids, err := s.b.Unqueue(s.handle, 1)
		if !backend.Check(err) {
			return
		}
		s.dropQueuedLocked(len(ids))
		s.free = append(s.free, ids...)
	}

	s.refillLocked()
}

// startLocked fills the pool from the current stream position and starts
// the backend. A paused source just resumes.
func (s *StreamSource) startLocked() {
	s.end.reset()

	if s.state != backend.StatePaused {
		if s.atEndLocked() {
			if err := s.seekFrameLocked(0); err != nil {
				s.logger.Debug("finished stream cannot restart", "err", err)
				return
			}
		}
		s.resetPoolLocked()
		s.refillLocked()
	}

	backend.Check(s.b.Play(s.handle))
	s.syncStateLocked()
	if s.state == backend.StateStopped && len(s.queued) == 0 && !s.atEndLocked() {
		// no data yet; update keeps asking the stream and restarts the backend
		s.state = backend.StatePlaying
	}

	s.logger.Debug("stream playing", "frame", s.next, "queued", len(s.queued), "state", s.state)
}

// stopLocked halts the backend, reclaims every buffer and rewinds the
// stream. Streams that cannot seek keep their position.
func (s *StreamSource) stopLocked() {
	s.haltLocked()

	if err := s.seekFrameLocked(0); err != nil && !errors.Is(err, audio.ErrSeekUnsupported) {
		backend.Check(err)
	}
}

// haltLocked stops the backend and reclaims every buffer without moving
// the stream.
func (s *StreamSource) haltLocked() {
	backend.Check(s.b.Stop(s.handle))
	s.resetPoolLocked()
	s.syncStateLocked()
}

// finishLocked handles the stream running out without looping. The stream
// is left at its end so AtEnd and Cursor report completion.
func (s *StreamSource) finishLocked() {
	s.resetPoolLocked()
	s.syncStateLocked()
	s.logger.Debug("stream finished", "frame", s.next)
	s.end.finish()
}

// recoverLocked restarts a backend that drained its queue before the
// stream ended.
func (s *StreamSource) recoverLocked() {
	processed, err := s.b.Processed(s.handle)
	if backend.Check(err) && processed > 0 {
		ids, err := s.b.Unqueue(s.handle, processed)
		if backend.Check(err) {
			s.dropQueuedLocked(len(ids))
			s.free = append(s.free, ids...)
		}
	}

	s.refillLocked()
	if len(s.queued) == 0 {
		return
	}

	backend.Check(s.b.Play(s.handle))
	s.syncStateLocked()
	s.logger.Debug("stream underrun, restarted", "frame", s.next, "queued", len(s.queued))
}

// resetPoolLocked detaches every buffer from the backend source and marks
// the whole pool free. The backend source must not be playing.
func (s *StreamSource) resetPoolLocked() {
	backend.Check(s.b.SetBuffer(s.handle, 0))
	s.queued = s.queued[:0]
	s.free = append(s.free[:0], s.buffers[:]...)
}

func (s *StreamSource) refillLocked() {
	for len(s.free) > 0 && !s.atEndLocked() {
		first := s.next
		if !s.fillLocked(s.free[0]) {
			return
		}
		s.queued = append(s.queued, first)
		s.free = s.free[1:]
	}
}

func (s *StreamSource) dropQueuedLocked(n int) {
	n = min(n, len(s.queued))
	s.queued = append(s.queued[:0], s.queued[n:]...)
}

// fillLocked reads one chunk into buf and queues it. It reports false when
// nothing was read or the backend refused the buffer.
func (s *StreamSource) fillLocked(buf backend.BufferID) bool {
	n := s.readLocked()
	if n == 0 {
		return false
	}

	clip := audio.NewClip(s.scratch[:n], s.rate, audio.ToChannels(s.channels))
	if !backend.Check(s.b.Upload(buf, clip)) {
		return false
	}

	return backend.Check(s.b.Queue(s.handle, buf))
}

// readLocked fills scratch with whole frames. A source that returns
// nothing without an error has no data yet and is asked again next tick.
// Read errors end the stream. A trailing partial frame is dropped and
// reported, since the stream has already moved past it.
func (s *StreamSource) readLocked() int {
	total := 0
	for total < len(s.scratch) && !s.eof {
		n, err := s.stream.ReadSamples(s.scratch[total:])
		total += n
		if err != nil {
			if !errors.Is(err, io.EOF) {
				backend.Check(fmt.Errorf("stream read: %w", err))
			}
			s.eof = true
			break
		}
		if n == 0 {
			break
		}
	}

	if rest := total % s.channels; rest != 0 {
		backend.Check(fmt.Errorf("%w: %d of %d samples at frame %d",
			ErrPartialFrame, rest, s.channels, s.next+total/s.channels))
		total -= rest
	}
	s.next += total / s.channels

	return total
}

func (s *StreamSource) seekFrameLocked(frame int) error {
	if err := audio.Seek(s.stream, frame*s.channels); err != nil {
		return err
	}
	s.next = frame
	s.eof = false

	return nil
}

func (s *StreamSource) syncStateLocked() {
	st, err := s.b.State(s.handle)
	if !backend.Check(err) {
		s.state = backend.StateUnknown
		return
	}
	s.state = st
}
