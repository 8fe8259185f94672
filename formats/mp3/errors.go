// SPDX-License-Identifier: EPL-2.0

package mp3

import "errors"

// ErrNotMp3File wraps the go-mp3 error when no MPEG frame header is found.
var ErrNotMp3File = errors.New("not an MP3 file")
