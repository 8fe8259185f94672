// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "00:00"},
		{in: 5 * time.Second, want: "00:05"},
		{in: 95*time.Second + 400*time.Millisecond, want: "01:35"},
		{in: time.Hour + 2*time.Minute + 3*time.Second, want: "1:02:03"},
		{in: -time.Second, want: "00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), tt.in.String())
	}
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512.0B", FormatBytes(512))
	assert.Equal(t, "1.5KiB", FormatBytes(1536))
	assert.Equal(t, "2.0MiB", FormatBytes(2<<20))
	assert.Equal(t, "1.0GiB", FormatBytes(1<<30))
	assert.Equal(t, "4.0TiB", FormatBytes(4<<40))
}
