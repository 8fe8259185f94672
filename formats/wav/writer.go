// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const headerSize = 44

// WriteWAV16 writes interleaved 16-bit PCM as a canonical 44-byte-header
// WAV. It only needs an io.Writer, so it works on pipes and sockets.
func WriteWAV16(w io.Writer, sampleRate, channels int, samples []int16) error {
	if channels <= 0 {
		return ErrInvalidChannelCount
	}
	if len(samples)%channels != 0 {
		return ErrSampleCountMismatch
	}

	numChannels := uint16(channels)
	bitsPerSample := uint16(16)
	blockAlign := numChannels * (bitsPerSample / 8)
	byteRate := uint32(sampleRate) * uint32(blockAlign)
	dataSize := uint32(len(samples) * 2)

	header := make([]byte, headerSize)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(header[22:24], numChannels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("%w", err)
	}

	// write in 8 KiB chunks
	const chunkSize = 4096
	buf := make([]byte, min(len(samples), chunkSize)*2)

	for i := 0; i < len(samples); i += chunkSize {
		chunk := samples[i:min(i+chunkSize, len(samples))]
		out := buf[:len(chunk)*2]
		for j, s := range chunk {
			binary.LittleEndian.PutUint16(out[j*2:], uint16(s))
		}

		if _, err := w.Write(out); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	return nil
}

// Encode writes interleaved 16-bit PCM through the go-audio encoder, which
// patches the header sizes on Close and therefore needs a seekable writer.
func Encode(w io.WriteSeeker, sampleRate, channels int, samples []int16) error {
	if channels <= 0 {
		return ErrInvalidChannelCount
	}
	if len(samples)%channels != 0 {
		return ErrSampleCountMismatch
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing wav encoder: %w", err)
	}

	return nil
}
