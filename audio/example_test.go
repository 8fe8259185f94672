// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"fmt"
	"io"
	"time"

	"github.com/ik5/capo/audio"
)

func Example_stream() {
	samples := make([]audio.Sample, 8000) // one second of mono at 8 kHz
	pcm := &audio.Pcm{Samples: samples, SampleRate: 8000, Channels: audio.Mono}

	stream := pcm.Stream()
	buf := make([]audio.Sample, 4096)

	chunks := 0
	for !stream.AtEnd() {
		stream.Read(buf)
		chunks++
	}

	fmt.Println("duration:", stream.Duration())
	fmt.Println("chunks:", chunks)
	fmt.Println("seek past end:", stream.SeekToFrame(stream.FrameCount()))
	// Output:
	// duration: 1s
	// chunks: 2
	// seek past end: false
}

func Example_pipe() {
	produced := 0
	pipe := audio.NewPipe(8000, 1, func(out *[]audio.Sample) error {
		*out = append(*out, 0.1, 0.2, 0.3)
		produced++
		if produced == 2 {
			return io.EOF
		}
		return nil
	})

	buf := make([]float32, 16)
	n, err := pipe.ReadSamples(buf)
	fmt.Println(n, err)
	// Output:
	// 6 EOF
}

func Example_formatDuration() {
	fmt.Println(audio.FormatDuration(83 * time.Second))
	fmt.Println(audio.FormatDuration(2*time.Hour + 5*time.Second))
	fmt.Println(audio.FormatBytes(3 << 20))
	// Output:
	// 01:23
	// 2:00:05
	// 3.0MiB
}
