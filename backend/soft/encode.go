// SPDX-License-Identifier: EPL-2.0

package soft

import (
	"encoding/binary"
	"math"

	"github.com/ik5/capo/backend"
	"github.com/ik5/capo/utils"
)

// RenderBytes renders as many whole frames as fit in p, encoded as
// little-endian format, and returns the number of bytes written.
// Device callbacks hand it their output buffer directly.
func (m *Mixer) RenderBytes(p []byte, format backend.SampleFormat, scratch *[]float32) int {
	bps := format.BytesPerSample()
	frames := len(p) / (bps * m.channels)
	if frames == 0 {
		return 0
	}

	n := frames * m.channels
	if cap(*scratch) < n {
		*scratch = make([]float32, n)
	}
	buf := (*scratch)[:n]
	m.Render(buf)

	switch format {
	case backend.FormatF32:
		for i, v := range buf {
			binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(v))
		}
	default:
		for i, v := range buf {
			binary.LittleEndian.PutUint16(p[2*i:], uint16(utils.Float32ToInt16(v)))
		}
	}

	return n * bps
}
