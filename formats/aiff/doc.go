// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes uncompressed AIFF with github.com/go-audio/aiff.
//
// Integer PCM at 8, 16, 24 and 32 bits is supported. AIFF-C compression
// types are not. The whole file is kept in memory; seeking restarts the
// decoder and skips forward, so it is linear in the target position.
package aiff
