// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"fmt"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/backend"
	"github.com/ik5/capo/utils"
)

type buffer struct {
	samples  []audio.Sample
	rate     int
	channels int
	frames   int
	refs     int // sources holding it, statically or queued
}

type fade struct {
	from, to float32
	total    int
	done     int
}

type source struct {
	state     backend.State
	static    backend.BufferID
	queue     []backend.BufferID
	processed int     // queue entries played through
	cursor    float64 // frames into the current buffer
	start     float64 // static offset applied by the next Play

	gain, pitch, pan, maxDistance float32
	position, velocity            backend.Vec3
	looping                       bool
	fade                          *fade
	onEnd                         func()
}

// Mixer is an in-memory backend. Sources are mixed into whatever the
// caller pulls with Render, at the mixer's rate and channel count. It keeps
// OpenAL's buffer queue rules, so it doubles as a deterministic test
// backend and as the mixing core of the device backends.
type Mixer struct {
	mu       sync.Mutex
	rate     int
	channels int

	buffers map[backend.BufferID]*buffer
	sources map[backend.SourceID]*source
	nextBuf backend.BufferID
	nextSrc backend.SourceID

	listenerGain        float32
	listenerPosition    backend.Vec3
	listenerVelocity    backend.Vec3
	listenerOrientation backend.Orientation

	closed bool
}

var _ backend.Backend = (*Mixer)(nil)

// New creates a mixer producing rate Hz with 1 or 2 output channels.
func New(rate, channels int) *Mixer {
	if channels != 1 {
		channels = 2
	}

	return &Mixer{
		rate:                rate,
		channels:            channels,
		buffers:             make(map[backend.BufferID]*buffer),
		sources:             make(map[backend.SourceID]*source),
		listenerGain:        1,
		listenerOrientation: backend.DefaultOrientation,
	}
}

func (m *Mixer) SampleRate() int { return m.rate }
func (m *Mixer) Channels() int   { return m.channels }

func (m *Mixer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	clear(m.buffers)
	clear(m.sources)

	return nil
}

func (m *Mixer) buffer(id backend.BufferID) (*buffer, error) {
	if m.closed {
		return nil, backend.ErrInvalidDevice
	}
	b, ok := m.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", backend.ErrInvalidBuffer, id)
	}

	return b, nil
}

func (m *Mixer) source(id backend.SourceID) (*source, error) {
	if m.closed {
		return nil, backend.ErrInvalidDevice
	}
	s, ok := m.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", backend.ErrInvalidSource, id)
	}

	return s, nil
}

func (m *Mixer) NewBuffer() (backend.BufferID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, backend.ErrInvalidDevice
	}
	m.nextBuf++
	m.buffers[m.nextBuf] = &buffer{}

	return m.nextBuf, nil
}

func (m *Mixer) DeleteBuffer(id backend.BufferID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.buffer(id)
	if err != nil {
		return err
	}
	if b.refs > 0 {
		return fmt.Errorf("%w: %d", backend.ErrBufferInUse, id)
	}
	delete(m.buffers, id)

	return nil
}

// Upload copies clip into the buffer. Empty or invalid clips are rejected.
func (m *Mixer) Upload(id backend.BufferID, clip audio.Clip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.buffer(id)
	if err != nil {
		return err
	}
	if b.refs > 0 {
		return fmt.Errorf("%w: %d", backend.ErrBufferInUse, id)
	}
	if !clip.Valid() || clip.FrameCount() == 0 {
		return fmt.Errorf("%w: %w", backend.ErrInvalidValue, audio.ErrInvalidClip)
	}
	if clip.Channels != audio.Mono && clip.Channels != audio.Stereo {
		return fmt.Errorf("%w: %s", backend.ErrInvalidValue, clip.Channels)
	}

	frames := clip.FrameCount()
	n := frames * int(clip.Channels)
	b.samples = append(b.samples[:0], clip.Samples[:n]...)
	b.rate = clip.SampleRate
	b.channels = int(clip.Channels)
	b.frames = frames

	return nil
}

func (m *Mixer) NewSource() (backend.SourceID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, backend.ErrInvalidDevice
	}
	m.nextSrc++
	m.sources[m.nextSrc] = &source{
		state:       backend.StateIdle,
		gain:        1,
		pitch:       1,
		maxDistance: math.MaxFloat32,
	}

	return m.nextSrc, nil
}

func (m *Mixer) DeleteSource(id backend.SourceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}
	m.detach(s)
	delete(m.sources, id)

	return nil
}

func (m *Mixer) detach(s *source) {
	if s.static != 0 {
		if b, ok := m.buffers[s.static]; ok {
			b.refs--
		}
		s.static = 0
	}
	for _, id := range s.queue {
		if b, ok := m.buffers[id]; ok {
			b.refs--
		}
	}
	s.queue = s.queue[:0]
	s.processed = 0
	s.cursor = 0
}

func (m *Mixer) SetBuffer(id backend.SourceID, buf backend.BufferID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}
	if s.state == backend.StatePlaying || s.state == backend.StatePaused {
		return fmt.Errorf("%w: source %d is %s", backend.ErrInvalidValue, id, s.state)
	}

	var b *buffer
	if buf != 0 {
		if b, err = m.buffer(buf); err != nil {
			return err
		}
		if b.frames == 0 {
			return fmt.Errorf("%w: buffer %d is empty", backend.ErrInvalidBuffer, buf)
		}
	}

	m.detach(s)
	if b != nil {
		b.refs++
		s.static = buf
	}

	return nil
}

func (m *Mixer) Queue(id backend.SourceID, bufs ...backend.BufferID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}
	if s.static != 0 {
		return fmt.Errorf("%w: source %d has a static buffer", backend.ErrInvalidValue, id)
	}

	for _, buf := range bufs {
		b, err := m.buffer(buf)
		if err != nil {
			return err
		}
		if b.frames == 0 {
			return fmt.Errorf("%w: buffer %d is empty", backend.ErrInvalidBuffer, buf)
		}
	}
	for _, buf := range bufs {
		m.buffers[buf].refs++
		s.queue = append(s.queue, buf)
	}

	return nil
}

func (m *Mixer) Unqueue(id backend.SourceID, n int) ([]backend.BufferID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return nil, err
	}
	if n < 0 || n > s.processed {
		return nil, fmt.Errorf("%w: unqueue %d of %d processed", backend.ErrInvalidValue, n, s.processed)
	}

	out := make([]backend.BufferID, n)
	copy(out, s.queue[:n])
	for _, buf := range out {
		if b, ok := m.buffers[buf]; ok {
			b.refs--
		}
	}
	s.queue = append(s.queue[:0], s.queue[n:]...)
	s.processed -= n

	return out, nil
}

func (m *Mixer) Processed(id backend.SourceID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return 0, err
	}

	return s.processed, nil
}

// Play starts the source from the top of its queue, resumes it when
// paused, and restarts it when already playing. A source with nothing to
// play goes straight to stopped.
func (m *Mixer) Play(id backend.SourceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}

	if s.state == backend.StatePaused {
		s.state = backend.StatePlaying
		return nil
	}

	s.processed = 0
	s.cursor = s.start
	s.start = 0
	if s.static == 0 && len(s.queue) == 0 {
		s.state = backend.StateStopped
		return nil
	}
	s.state = backend.StatePlaying

	return nil
}

func (m *Mixer) Pause(id backend.SourceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}
	if s.state == backend.StatePlaying {
		s.state = backend.StatePaused
	}

	return nil
}

func (m *Mixer) Stop(id backend.SourceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}
	if s.state == backend.StateIdle {
		return nil
	}
	s.state = backend.StateStopped
	s.processed = len(s.queue)
	s.cursor = 0
	s.start = 0
	s.fade = nil

	return nil
}

func (m *Mixer) Rewind(id backend.SourceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}
	s.state = backend.StateIdle
	s.processed = 0
	s.cursor = 0
	s.start = 0
	s.fade = nil

	return nil
}

func (m *Mixer) State(id backend.SourceID) (backend.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return backend.StateUnknown, err
	}

	return s.state, nil
}

func (m *Mixer) SampleOffset(id backend.SourceID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return 0, err
	}
	if s.state != backend.StatePlaying && s.state != backend.StatePaused {
		return int(s.start), nil
	}

	offset := int(s.cursor)
	if s.static != 0 {
		return offset, nil
	}
	for _, buf := range s.queue[:s.processed] {
		offset += m.buffers[buf].frames
	}

	return offset, nil
}

func (m *Mixer) SetSampleOffset(id backend.SourceID, frames int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}
	if frames < 0 {
		return fmt.Errorf("%w: offset %d", backend.ErrInvalidValue, frames)
	}

	if s.static != 0 {
		if frames >= m.buffers[s.static].frames {
			return fmt.Errorf("%w: offset %d", backend.ErrInvalidValue, frames)
		}
		if s.state == backend.StatePlaying || s.state == backend.StatePaused {
			s.cursor = float64(frames)
		} else {
			s.start = float64(frames)
		}
		return nil
	}

	for i, buf := range s.queue {
		n := m.buffers[buf].frames
		if frames < n {
			s.processed = i
			s.cursor = float64(frames)
			return nil
		}
		frames -= n
	}

	return fmt.Errorf("%w: offset past queued data", backend.ErrInvalidValue)
}

func (m *Mixer) SetFloat(id backend.SourceID, p backend.Param, v float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}
	if math.IsNaN(float64(v)) {
		return fmt.Errorf("%w: %s is NaN", backend.ErrInvalidValue, p)
	}

	switch p {
	case backend.ParamGain:
		if v < 0 {
			return fmt.Errorf("%w: gain %v", backend.ErrInvalidValue, v)
		}
		s.gain = v
		s.fade = nil
	case backend.ParamPitch:
		if v <= 0 {
			return fmt.Errorf("%w: pitch %v", backend.ErrInvalidValue, v)
		}
		s.pitch = v
	case backend.ParamPan:
		if v < -1 || v > 1 {
			return fmt.Errorf("%w: pan %v", backend.ErrInvalidValue, v)
		}
		s.pan = v
	case backend.ParamMaxDistance:
		if v < 0 {
			return fmt.Errorf("%w: max distance %v", backend.ErrInvalidValue, v)
		}
		s.maxDistance = v
	default:
		return fmt.Errorf("%w: %s is not a scalar", backend.ErrInvalidValue, p)
	}

	return nil
}

func (m *Mixer) Float(id backend.SourceID, p backend.Param) (float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return 0, err
	}

	switch p {
	case backend.ParamGain:
		return s.gain, nil
	case backend.ParamPitch:
		return s.pitch, nil
	case backend.ParamPan:
		return s.pan, nil
	case backend.ParamMaxDistance:
		return s.maxDistance, nil
	default:
		return 0, fmt.Errorf("%w: %s is not a scalar", backend.ErrInvalidValue, p)
	}
}

func (m *Mixer) SetVec3(id backend.SourceID, p backend.Param, v backend.Vec3) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}

	switch p {
	case backend.ParamPosition:
		s.position = v
	case backend.ParamVelocity:
		s.velocity = v
	default:
		return fmt.Errorf("%w: %s is not a vector", backend.ErrInvalidValue, p)
	}

	return nil
}

func (m *Mixer) Vec3(id backend.SourceID, p backend.Param) (backend.Vec3, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return backend.Vec3{}, err
	}

	switch p {
	case backend.ParamPosition:
		return s.position, nil
	case backend.ParamVelocity:
		return s.velocity, nil
	default:
		return backend.Vec3{}, fmt.Errorf("%w: %s is not a vector", backend.ErrInvalidValue, p)
	}
}

func (m *Mixer) SetLooping(id backend.SourceID, loop bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}
	s.looping = loop

	return nil
}

func (m *Mixer) Looping(id backend.SourceID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return false, err
	}

	return s.looping, nil
}

// Fade ramps the gain linearly over frames output frames and leaves the
// gain at to when done.
func (m *Mixer) Fade(id backend.SourceID, from, to float32, frames int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}
	if from < 0 || to < 0 {
		return fmt.Errorf("%w: fade %v -> %v", backend.ErrInvalidValue, from, to)
	}
	if frames <= 0 {
		s.gain = to
		s.fade = nil
		return nil
	}
	s.gain = from
	s.fade = &fade{from: from, to: to, total: frames}

	return nil
}

func (m *Mixer) OnEnd(id backend.SourceID, fn func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.source(id)
	if err != nil {
		return err
	}
	s.onEnd = fn

	return nil
}

func (m *Mixer) ListenerGain() (float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.listenerGain, nil
}

func (m *Mixer) SetListenerGain(v float32) error {
	if v < 0 || math.IsNaN(float64(v)) {
		return fmt.Errorf("%w: listener gain %v", backend.ErrInvalidValue, v)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.listenerGain = v

	return nil
}

func (m *Mixer) ListenerPosition() (backend.Vec3, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.listenerPosition, nil
}

func (m *Mixer) SetListenerPosition(v backend.Vec3) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listenerPosition = v

	return nil
}

func (m *Mixer) ListenerVelocity() (backend.Vec3, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.listenerVelocity, nil
}

func (m *Mixer) SetListenerVelocity(v backend.Vec3) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listenerVelocity = v

	return nil
}

func (m *Mixer) ListenerOrientation() (backend.Orientation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.listenerOrientation, nil
}

func (m *Mixer) SetListenerOrientation(o backend.Orientation) error {
	if o.At == (backend.Vec3{}) || o.Up == (backend.Vec3{}) {
		return fmt.Errorf("%w: zero orientation vector", backend.ErrInvalidValue)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.listenerOrientation = o

	return nil
}

// Render mixes every playing source into out, which holds interleaved
// frames at the mixer's channel count, and returns the frames written.
// End callbacks of sources that ran dry run after the mixer lock is
// released.
func (m *Mixer) Render(out []float32) int {
	frames := len(out) / m.channels
	out = out[:frames*m.channels]
	clear(out)

	var ended []func()

	m.mu.Lock()
	if !m.closed {
		for _, s := range m.sources {
			if s.state != backend.StatePlaying {
				continue
			}
			if m.mix(s, out) && s.onEnd != nil {
				ended = append(ended, s.onEnd)
			}
		}
	}
	gain := m.listenerGain
	m.mu.Unlock()

	for i, v := range out {
		out[i] = utils.Clamp(v*gain, -1, 1)
	}
	for _, fn := range ended {
		fn()
	}

	return frames
}

// Advance renders and discards frames of output, moving playback on.
func (m *Mixer) Advance(frames int) {
	buf := make([]float32, min(frames, 4096)*m.channels)
	for frames > 0 {
		n := min(frames, 4096)
		m.Render(buf[:n*m.channels])
		frames -= n
	}
}

func (m *Mixer) current(s *source) *buffer {
	if s.static != 0 {
		return m.buffers[s.static]
	}
	if s.processed < len(s.queue) {
		return m.buffers[s.queue[s.processed]]
	}

	return nil
}

// mix adds s into out and reports whether it ran out of data.
func (m *Mixer) mix(s *source, out []float32) bool {
	leftGain := min(1, 1-s.pan)
	rightGain := min(1, 1+s.pan)

	for f := 0; f < len(out)/m.channels; f++ {
		buf := m.current(s)
		if buf == nil {
			return m.finish(s)
		}

		gain := s.gain
		if s.fade != nil {
			gain = utils.Lerp(s.fade.from, s.fade.to, float32(s.fade.done)/float32(s.fade.total))
			s.fade.done++
			if s.fade.done >= s.fade.total {
				s.gain = s.fade.to
				s.fade = nil
			}
		}

		l, r := buf.frame(s.cursor)
		if m.channels == 1 {
			out[f] += (l + r) / 2 * gain
		} else {
			out[2*f] += l * leftGain * gain
			out[2*f+1] += r * rightGain * gain
		}

		s.cursor += float64(s.pitch) * float64(buf.rate) / float64(m.rate)
		for s.cursor >= float64(buf.frames) {
			s.cursor -= float64(buf.frames)
			if !m.next(s) {
				return m.finish(s)
			}
			if buf = m.current(s); buf == nil {
				return m.finish(s)
			}
		}
	}

	return false
}

// next moves past the current buffer and reports whether more data follows.
func (m *Mixer) next(s *source) bool {
	if s.static != 0 {
		return s.looping
	}

	s.processed++
	if s.processed < len(s.queue) {
		return true
	}
	if s.looping && len(s.queue) > 0 {
		s.processed = 0
		return true
	}

	return false
}

func (m *Mixer) finish(s *source) bool {
	s.state = backend.StateStopped
	s.processed = len(s.queue)
	s.cursor = 0
	s.start = 0
	s.fade = nil

	return true
}

// frame returns the left and right value at a fractional frame position,
// interpolating toward the next frame. Mono is duplicated.
func (b *buffer) frame(pos float64) (float32, float32) {
	i := int(pos)
	frac := float32(pos - float64(i))
	j := min(i+1, b.frames-1)

	if b.channels == 1 {
		v := utils.Lerp(b.samples[i], b.samples[j], frac)
		return v, v
	}

	l := utils.Lerp(b.samples[2*i], b.samples[2*j], frac)
	r := utils.Lerp(b.samples[2*i+1], b.samples[2*j+1], frac)

	return l, r
}

func init() {
	backend.Register(backend.Soft, func(cfg backend.Config, _ *log.Logger) (backend.Backend, error) {
		return New(cfg.SampleRate, cfg.Channels), nil
	})
}
