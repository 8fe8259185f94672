// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"time"
)

// FormatDuration renders d as MM:SS, or H:MM:SS from one hour up.
// Negative durations render as 00:00.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	total := int64(d / time.Second)
	hours := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, mins, secs)
	}

	return fmt.Sprintf("%02d:%02d", mins, secs)
}

var byteUnits = []string{"B", "KiB", "MiB", "GiB"}

// FormatBytes renders n with one decimal and a binary unit, e.g. 1.5KiB.
func FormatBytes(n uint64) string {
	value := float64(n)
	for _, unit := range byteUnits {
		if value < 1024 {
			return fmt.Sprintf("%.1f%s", value, unit)
		}
		value /= 1024
	}

	return fmt.Sprintf("%.1fTiB", value)
}
