// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"testing"
)

func TestFloat32ToInt16(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input float32
		want  int16
	}{
		{name: "zero", input: 0, want: 0},
		{name: "max positive", input: 1, want: math.MaxInt16},
		{name: "max negative", input: -1, want: -math.MaxInt16},
		{name: "half positive", input: 0.5, want: 16383},
		{name: "clamps above", input: 2.5, want: math.MaxInt16},
		{name: "clamps below", input: -7, want: -math.MaxInt16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Float32ToInt16(tt.input); got != tt.want {
				t.Errorf("Float32ToInt16(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestIntToFloat32(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v, depth int
		want     float32
	}{
		{v: -128, depth: 8, want: -1},
		{v: 16384, depth: 16, want: 0.5},
		{v: -4194304, depth: 24, want: -0.5},
		{v: 1073741824, depth: 32, want: 0.5},
		{v: -1024, depth: 12, want: -0.5},
		{v: 262144, depth: 20, want: 0.5},
		{v: 16384, depth: 0, want: 0.5},
	}

	for _, tt := range tests {
		if got := IntToFloat32(tt.v, tt.depth); got != tt.want {
			t.Errorf("IntToFloat32(%d, %d) = %v, want %v", tt.v, tt.depth, got, tt.want)
		}
	}

	if got := Int16ToFloat32(math.MinInt16); got != -1 {
		t.Errorf("Int16ToFloat32(MinInt16) = %v, want -1", got)
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	if got := Clamp(2, 0, 1); got != 1 {
		t.Errorf("Clamp(2, 0, 1) = %v", got)
	}
	if got := Clamp(-2, 0, 1); got != 0 {
		t.Errorf("Clamp(-2, 0, 1) = %v", got)
	}
	if got := Clamp(0.25, 0, 1); got != 0.25 {
		t.Errorf("Clamp(0.25, 0, 1) = %v", got)
	}
}

func TestCubicInterpolate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		y0, y1, y2, y3 float32
		x              float32
		want           float32
		tolerance      float32
	}{
		{name: "start returns y1", y0: 0, y1: 1, y2: 2, y3: 3, x: 0, want: 1, tolerance: 0.0001},
		{name: "end returns y2", y0: 0, y1: 1, y2: 2, y3: 3, x: 1, want: 2, tolerance: 0.0001},
		{name: "linear data stays linear", y0: 1, y1: 2, y2: 3, y3: 4, x: 0.25, want: 2.25, tolerance: 0.0001},
		{name: "silence", x: 0.5, want: 0, tolerance: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := CubicInterpolate(tt.y0, tt.y1, tt.y2, tt.y3, tt.x)
			if diff := float32(math.Abs(float64(got - tt.want))); diff > tt.tolerance {
				t.Errorf("CubicInterpolate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLerp(t *testing.T) {
	t.Parallel()

	if got := Lerp(1, 3, 0.5); got != 2 {
		t.Errorf("Lerp(1, 3, 0.5) = %v, want 2", got)
	}
}

func BenchmarkCubicInterpolate(b *testing.B) {
	var result float32
	b.ReportAllocs()

	for i := range b.N {
		result = CubicInterpolate(0.5, 1.0, 0.8, 0.3, float32(i%100)/100)
	}

	_ = result
}
