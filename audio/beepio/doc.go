// SPDX-License-Identifier: EPL-2.0

// Package beepio bridges github.com/gopxl/beep/v2 streamers and
// audio.Source.
//
// Wrap turns any beep.Streamer into an audio.Source, so beep generators
// and effects can be bound to an engine.StreamSource. NewStreamer goes the
// other way and lets a decoded audio.Source feed beep combinators such as
// beep.Take and beep.Seq.
package beepio
