// SPDX-License-Identifier: EPL-2.0

// Package malgo plays the software mixer through miniaudio via
// github.com/gen2brain/malgo.
//
// miniaudio is compiled in with cgo, so the real implementation is behind
// the malgo build tag:
//
//	go build -tags malgo ./cmd/capo
//
// Without the tag New returns backend.ErrUnavailable and backend.Auto moves
// on to the next output.
package malgo
