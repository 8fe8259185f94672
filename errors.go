// SPDX-License-Identifier: EPL-2.0

package capo

import "errors"

var (
	// ErrUnsupportedFormat is returned when no decoder accepts the input.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrDecodeFailed wraps errors raised after a decoder accepted the input.
	ErrDecodeFailed = errors.New("decode failed")
)
