// SPDX-License-Identifier: EPL-2.0

// Package soft is a software mixer that implements backend.Backend in
// memory.
//
// Nothing is played until a caller pulls samples with Render. The device
// backends (oto, malgo) embed a Mixer and call Render from their audio
// callback. Tests drive it directly, which makes playback time explicit:
//
//	m := soft.New(8000, 1)
//	// queue buffers and Play through the Backend methods
//	m.Advance(4096) // play 4096 frames
//
// Buffers are resampled to the mixer rate by linear interpolation, scaled
// by source pitch. Positions and velocities are stored but do not affect
// the mix.
package soft
