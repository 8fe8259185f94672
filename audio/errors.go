// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")

	// ErrInvalidClip is returned when a clip has no samples, no rate or no channels.
	ErrInvalidClip = errors.New("invalid clip")

	// ErrSeekOutOfRange means the requested position lies past the end of the stream.
	ErrSeekOutOfRange = errors.New("seek position out of range")

	// ErrSeekUnsupported means the stream cannot be repositioned at all.
	ErrSeekUnsupported = errors.New("seek not supported")

	ErrNoDecoder   = errors.New("no decoder accepted the input")
	ErrPipeClosed  = errors.New("pipe closed")
	ErrUnsupported = errors.New("unsupported channel layout")
)
