// SPDX-License-Identifier: EPL-2.0

// Package flac decodes FLAC with github.com/mewkiz/flac.
//
// Frames are decoded one at a time and interleaved into float32. The source
// knows its length from the STREAMINFO block and seeks by decoding forward
// from the start.
package flac
