// SPDX-License-Identifier: EPL-2.0

// Package engine plays audio through a backend.Backend.
//
// A Device owns the backend and one background poller. It hands out two
// kinds of source:
//
//   - SoundSource uploads a whole clip into a single backend buffer once
//     and plays it from there.
//   - StreamSource plays audio of any length by cycling BufferCount
//     buffers of FramesPerBuffer frames each. The poller refills one
//     processed buffer per tick from the bound audio.Source.
//
// Basic use:
//
//	dev, err := engine.NewDevice(backend.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	src, _, err := capo.Open("song.ogg")
//	if err != nil {
//	    return err
//	}
//	stream, err := dev.NewStreamSource()
//	if err != nil {
//	    return err
//	}
//	if err := stream.Bind(src); err != nil {
//	    return err
//	}
//	stream.Play()
//	_ = stream.WaitUntilEnded(ctx)
//
// Calling Play on a source that is already playing restarts it from the
// beginning.
//
// Backend call failures never surface as errors from playback controls.
// They are passed to backend.Check and the control becomes a no-op. The
// same holds for controls on an unbound source.
package engine
