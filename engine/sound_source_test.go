// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/backend"
	"github.com/ik5/capo/backend/soft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSound(t *testing.T, dev *Device, clip audio.Clip) *SoundSource {
	t.Helper()

	s, err := dev.NewSoundSource()
	require.NoError(t, err)
	require.NoError(t, s.Bind(clip))

	return s
}

func TestSoundSource_PlaysToEnd(t *testing.T) {
	dev, m := newTestDevice(t)
	s := newSound(t, dev, rampClip(1000))

	assert.Equal(t, 125*time.Millisecond, s.Duration())
	assert.Equal(t, backend.StateIdle, s.State())

	s.Play()
	require.True(t, s.CanWaitUntilEnded())

	done := make(chan error, 1)
	go func() { done <- s.WaitUntilEnded(context.Background()) }()

	m.Advance(400)
	assert.Equal(t, 50*time.Millisecond, s.Cursor())
	m.Advance(1000)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitUntilEnded did not return")
	}
	assert.Equal(t, backend.StateStopped, s.State())
	assert.True(t, s.AtEnd())

	// the next run clears the end flag
	s.Play()
	assert.False(t, s.AtEnd())
}

func TestSoundSource_Seek(t *testing.T) {
	dev, m := newTestDevice(t)
	s := newSound(t, dev, rampClip(1000))
	assert.True(t, s.CanSeek())

	require.NoError(t, s.Seek(62500*time.Microsecond))
	assert.Equal(t, 62500*time.Microsecond, s.Cursor())

	s.Play()
	m.Advance(100)
	assert.Equal(t, 75*time.Millisecond, s.Cursor())

	assert.ErrorIs(t, s.Seek(time.Second), ErrSeekOutOfRange)
	assert.ErrorIs(t, s.Seek(-1), ErrSeekOutOfRange)
	assert.Equal(t, 75*time.Millisecond, s.Cursor())
}

func TestSoundSource_PlayRestarts(t *testing.T) {
	dev, m := newTestDevice(t)
	s := newSound(t, dev, rampClip(1000))

	s.Play()
	m.Advance(500)
	s.Play()
	assert.Equal(t, time.Duration(0), s.Cursor())
	assert.True(t, s.IsPlaying())
}

// endRecorder keeps every end callback the engine registers so a test can
// fire one late, the way Render does after releasing the mixer lock.
type endRecorder struct {
	*soft.Mixer

	mu   sync.Mutex
	ends []func()
}

func (r *endRecorder) OnEnd(id backend.SourceID, fn func()) error {
	r.mu.Lock()
	r.ends = append(r.ends, fn)
	r.mu.Unlock()

	return r.Mixer.OnEnd(id, fn)
}

func (r *endRecorder) end(i int) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ends[i]
}

func TestSoundSource_LateEndFromPreviousRun(t *testing.T) {
	rec := &endRecorder{Mixer: soft.New(testRate, 1)}
	dev, err := NewDeviceWith(rec, WithPollInterval(time.Hour), WithLogger(quietLogger()))
	require.NoError(t, err)
	defer dev.Close()

	s := newSound(t, dev, rampClip(1000))
	s.Play()
	rec.Advance(500)
	s.Play()

	// the first run's callback arrives after the restart
	rec.end(0)()
	assert.False(t, s.AtEnd())
	require.True(t, s.CanWaitUntilEnded())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.WaitUntilEnded(ctx), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() { done <- s.WaitUntilEnded(context.Background()) }()

	rec.Advance(1100)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitUntilEnded did not return after the clip ended")
	}
	assert.True(t, s.AtEnd())
}

func TestSoundSource_PauseStop(t *testing.T) {
	dev, m := newTestDevice(t)
	s := newSound(t, dev, rampClip(1000))

	s.Play()
	m.Advance(200)
	s.Pause()
	assert.Equal(t, backend.StatePaused, s.State())
	m.Advance(200)
	assert.Equal(t, 25*time.Millisecond, s.Cursor())

	s.Stop()
	assert.Equal(t, backend.StateStopped, s.State())
	assert.False(t, s.AtEnd())
}

func TestSoundSource_Looping(t *testing.T) {
	dev, m := newTestDevice(t)
	s := newSound(t, dev, rampClip(1000))

	s.SetLooping(true)
	assert.True(t, s.IsLooping())
	s.Play()
	m.Advance(5500)

	assert.True(t, s.IsPlaying())
	assert.False(t, s.CanWaitUntilEnded())
	assert.NoError(t, s.WaitUntilEnded(context.Background()))
	assert.Equal(t, 62500*time.Microsecond, s.Cursor())
}

func TestSoundSource_BindKeepsPreviousOnFailure(t *testing.T) {
	dev, _ := newTestDevice(t)
	s := newSound(t, dev, rampClip(1000))

	err := s.Bind(audio.Clip{})
	assert.ErrorIs(t, err, ErrBindFailed)
	assert.ErrorIs(t, err, audio.ErrInvalidClip)
	assert.True(t, s.IsBound())
	assert.Equal(t, 125*time.Millisecond, s.Duration())

	// rebinding replaces the clip
	require.NoError(t, s.Bind(rampClip(2000)))
	assert.Equal(t, 250*time.Millisecond, s.Duration())
}

func TestSoundSource_Unbind(t *testing.T) {
	dev, _ := newTestDevice(t)
	s := newSound(t, dev, rampClip(1000))
	s.Play()

	s.Unbind()
	assert.False(t, s.IsBound())
	assert.Equal(t, backend.StateIdle, s.State())
	assert.Equal(t, time.Duration(0), s.Duration())
	assert.Equal(t, time.Duration(0), s.Cursor())
	assert.False(t, s.CanSeek())
	assert.NoError(t, s.Seek(time.Second))

	s.Play()
	assert.False(t, s.IsPlaying())
}

func TestSoundSource_Properties(t *testing.T) {
	dev, _ := newTestDevice(t)
	s, err := dev.NewSoundSource()
	require.NoError(t, err)

	s.SetGain(2)
	assert.Equal(t, float32(1), s.Gain())
	s.SetGain(0.25)
	assert.Equal(t, float32(0.25), s.Gain())

	s.SetPan(-3)
	assert.Equal(t, float32(-1), s.Pan())

	s.SetPitch(1.5)
	assert.Equal(t, float32(1.5), s.Pitch())

	s.SetMaxDistance(10)
	assert.Equal(t, float32(10), s.MaxDistance())

	s.SetPosition(backend.Vec3{X: 1})
	assert.Equal(t, backend.Vec3{X: 1}, s.Position())
	s.SetVelocity(backend.Vec3{Y: 2})
	assert.Equal(t, backend.Vec3{Y: 2}, s.Velocity())
}

func TestSoundSource_Fade(t *testing.T) {
	dev, m := newTestDevice(t)
	s, err := dev.NewSoundSource()
	require.NoError(t, err)

	assert.False(t, s.FadeIn(time.Second, 1))
	assert.False(t, s.FadeOut(time.Second))

	require.NoError(t, s.Bind(rampClip(testRate)))
	s.SetGain(0.8)

	// a negative target fades up to the current gain
	require.True(t, s.FadeIn(100*time.Millisecond, -1))
	assert.Equal(t, float32(0), s.Gain())

	s.Play()
	m.Advance(1000)
	assert.InDelta(t, 0.8, s.Gain(), 1e-6)

	require.True(t, s.FadeOut(0))
	assert.Equal(t, float32(0), s.Gain())
}

func TestSoundSource_Close(t *testing.T) {
	dev, _ := newTestDevice(t)
	s := newSound(t, dev, rampClip(1000))
	s.Play()

	require.NoError(t, s.Close())
	assert.False(t, s.IsBound())
	assert.Equal(t, backend.StateIdle, s.State())
	assert.ErrorIs(t, s.Bind(rampClip(10)), ErrClosed)
	assert.Equal(t, float32(1), s.Gain())
	require.NoError(t, s.Close())
}
