// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and writes RIFF/WAVE files.
//
// Decoding goes through github.com/go-audio/wav and accepts integer PCM at
// 8, 16, 24 and 32 bits with any channel count. The input is read into
// memory, so the returned source implements audio.Seeker, audio.Positioner
// and audio.Lengther:
//
//	src, err := wav.Decoder{}.Decode(file)
//	if errors.Is(err, wav.ErrNotWavFile) {
//	    // try another decoder
//	}
//	n := audio.SampleCount(src)
//
// Writing is 16-bit only. WriteWAV16 emits a canonical 44-byte header and
// needs just an io.Writer; Encode uses the go-audio encoder and needs an
// io.WriteSeeker:
//
//	pcm16, _ := audio.Render16(src, 8000, 1, 4096)
//	err := wav.WriteWAV16(out, 8000, 1, pcm16)
package wav
