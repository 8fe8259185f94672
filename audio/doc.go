// SPDX-License-Identifier: EPL-2.0

// Package audio provides the sample-level building blocks of capo.
//
//   - Source, the pull interface every decoder and custom stream implements,
//     with optional Seeker, Positioner and Lengther capabilities
//   - Clip, a non-owning view over interleaved samples, and Pcm, which owns them
//   - Stream, a seekable read cursor over a Clip
//   - Pipe, which turns a push-style producer into a Source
//   - Resampler and ChannelMixer for format conversion
//   - Registry for decoders keyed by format name
//
// # Source Interface
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    Close() error
//	}
//
// ReadSamples returns io.EOF once the stream is exhausted. Seeking is
// optional: a Source that does not implement Seeker reports
// ErrSeekUnsupported through Seek, which is distinct from the
// ErrSeekOutOfRange a Seeker returns for a bad index.
//
// # Clips and Streams
//
// A Pcm holds decoded audio. Clips and Streams alias its storage:
//
//	pcm, _ := audio.ReadAll(src)
//	stream := pcm.Stream()
//	buf := make([]audio.Sample, 4096*int(pcm.Channels))
//	for !stream.AtEnd() {
//	    chunk := stream.Read(buf)
//	    _ = chunk.Samples
//	}
//
// The Pcm must outlive every Clip and Stream made from it.
//
// # Conversion
//
//	resampler := audio.NewResampler(source, 16000)
//	mono := audio.NewMonoMixer(resampler)
//	pcm16, _ := audio.Render16(source, 8000, 1, 4096)
package audio
