// SPDX-License-Identifier: EPL-2.0

package utils

func Float32ToInt16(x float32) int16 {
	// Clamp and scale
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// Use 32767 for positive max to avoid overflow
	return int16(x * 32767.0)
}

// Int16ToFloat32 is the inverse of Float32ToInt16 for the negative range.
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}

// IntToFloat32 normalizes a signed PCM integer of the given bit depth into [-1, 1).
// Depths outside 1..32 are treated as 16-bit.
func IntToFloat32(v, bitDepth int) float32 {
	if bitDepth < 1 || bitDepth > 32 {
		bitDepth = 16
	}

	return float32(float64(v) / float64(int64(1)<<(bitDepth-1)))
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}

	return x
}

// CubicInterpolate evaluates a Catmull-Rom spline through y0..y3 at x,
// where x in [0, 1] is the position between y1 and y2.
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return ((a0*x+a1)*x+a2)*x + a3
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, x float32) float32 {
	return a + (b-a)*x
}
