// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis with github.com/jfreymuth/oggvorbis.
//
// Samples come out interleaved in the stream's own channel layout, clamped
// to [-1, 1]. Seeking and SampleCount need a seekable input; over a plain
// io.Reader the length reads as zero and Seek returns
// audio.ErrSeekUnsupported.
package vorbis
