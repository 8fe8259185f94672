// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"

	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/backend"
)

var (
	// ErrInvalidDevice is returned when no backend could be opened.
	ErrInvalidDevice = backend.ErrInvalidDevice

	// ErrClosed is returned when creating a source on a closed device.
	ErrClosed = errors.New("device closed")

	// ErrBindFailed is returned when a source rejects what it is bound to.
	// The previous binding stays in place.
	ErrBindFailed = errors.New("bind failed")

	// ErrPartialFrame is reported when a stream returns a sample count that
	// is not a whole number of frames. The stray samples are dropped.
	ErrPartialFrame = errors.New("stream returned a partial frame")

	ErrSeekOutOfRange  = audio.ErrSeekOutOfRange
	ErrSeekUnsupported = audio.ErrSeekUnsupported
)
