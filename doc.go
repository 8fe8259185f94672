// SPDX-License-Identifier: EPL-2.0

// Package capo decodes audio files into memory or opens them as streams,
// ready to hand to an engine.Device for playback.
//
// Formats are chosen by Hint. With HintUnknown the input is sniffed by its
// magic bytes and then, if that fails, every known decoder is tried in
// Hint order until one accepts it:
//
//	pcm, hint, err := capo.DecodeFile("intro.flac", capo.HintUnknown)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(hint, pcm.Clip().Duration())
//
// Long tracks are better streamed than decoded whole:
//
//	src, _, err := capo.Open("album.ogg")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//	stream, _ := device.NewStreamSource()
//	_ = stream.Bind(src)
//	stream.Play()
//
// The sample-level types live in package audio, the playback engine in
// package engine and the output devices under backend.
package capo
