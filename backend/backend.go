// SPDX-License-Identifier: EPL-2.0

package backend

import (
	"fmt"

	"github.com/ik5/capo/audio"
)

// BufferID names a backend buffer. Zero is never a valid buffer and is
// used to detach a source from its static buffer.
type BufferID uint32

// SourceID names a backend playback source. Zero is never valid.
type SourceID uint32

// State is the playback state of a source as the backend sees it.
type State int

const (
	StateUnknown State = iota
	StateIdle
	StatePlaying
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Param selects a scalar or vector source property.
type Param int

const (
	ParamGain Param = iota
	ParamPitch
	ParamPan
	ParamMaxDistance
	ParamPosition
	ParamVelocity
)

func (p Param) String() string {
	switch p {
	case ParamGain:
		return "gain"
	case ParamPitch:
		return "pitch"
	case ParamPan:
		return "pan"
	case ParamMaxDistance:
		return "max_distance"
	case ParamPosition:
		return "position"
	case ParamVelocity:
		return "velocity"
	default:
		return fmt.Sprintf("param(%d)", int(p))
	}
}

// Vec3 is a position or velocity in listener space.
type Vec3 struct {
	X, Y, Z float32
}

// Orientation is the listener's facing: At is where it looks, Up its top.
type Orientation struct {
	At, Up Vec3
}

// DefaultOrientation looks down -Z with +Y up.
var DefaultOrientation = Orientation{At: Vec3{0, 0, -1}, Up: Vec3{0, 1, 0}}

// Backend is the set of primitives the playback engine is built on. The
// shape follows OpenAL: buffers hold uploaded PCM, sources play either one
// static buffer or a FIFO queue of buffers, and the backend reports how many
// queued buffers it has finished with.
//
// Implementations must be safe for concurrent use.
type Backend interface {
	NewBuffer() (BufferID, error)
	DeleteBuffer(BufferID) error
	// Upload copies clip into the buffer, replacing its contents.
	Upload(BufferID, audio.Clip) error

	NewSource() (SourceID, error)
	DeleteSource(SourceID) error
	// SetBuffer binds a single static buffer; zero detaches it and clears
	// the queue.
	SetBuffer(SourceID, BufferID) error
	Queue(SourceID, ...BufferID) error
	// Unqueue removes up to n processed buffers from the front of the queue.
	Unqueue(SourceID, int) ([]BufferID, error)
	// Processed counts queued buffers that have been played through.
	Processed(SourceID) (int, error)

	Play(SourceID) error
	Pause(SourceID) error
	// Stop halts playback and marks every queued buffer processed.
	Stop(SourceID) error
	// Rewind returns the source to the idle state at offset zero.
	Rewind(SourceID) error
	State(SourceID) (State, error)

	// SampleOffset is the playback position in frames, counted from the
	// start of the oldest buffer still in the queue.
	SampleOffset(SourceID) (int, error)
	SetSampleOffset(SourceID, int) error

	SetFloat(SourceID, Param, float32) error
	Float(SourceID, Param) (float32, error)
	SetVec3(SourceID, Param, Vec3) error
	Vec3(SourceID, Param) (Vec3, error)
	SetLooping(SourceID, bool) error
	Looping(SourceID) (bool, error)

	// Fade ramps the source gain from one value to another over frames.
	Fade(src SourceID, from, to float32, frames int) error

	// OnEnd registers fn to run once each time the source stops because
	// it ran out of data. An explicit Stop never triggers it. fn runs on
	// a backend goroutine and must not call back into the same source
	// synchronously in a way that blocks.
	OnEnd(SourceID, func()) error

	ListenerGain() (float32, error)
	SetListenerGain(float32) error
	ListenerPosition() (Vec3, error)
	SetListenerPosition(Vec3) error
	ListenerVelocity() (Vec3, error)
	SetListenerVelocity(Vec3) error
	ListenerOrientation() (Orientation, error)
	SetListenerOrientation(Orientation) error

	// SampleRate is the output rate the backend mixes at.
	SampleRate() int

	Close() error
}
