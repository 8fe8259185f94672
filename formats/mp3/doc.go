// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio with github.com/hajimehoshi/go-mp3.
//
// Output is always stereo float32 at the file's sample rate; mono files are
// duplicated by go-mp3 itself. When the input is an io.Seeker (an *os.File or
// a bytes.Reader) the source also seeks and reports its length:
//
//	src, _ := mp3.Decoder{}.Decode(file)
//	_ = audio.Seek(src, 44100*2*30) // 30s in
//
// With a plain io.Reader the length is unknown and Seek fails with
// audio.ErrSeekUnsupported.
package mp3
