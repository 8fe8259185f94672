// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"time"

	"github.com/charmbracelet/log"
)

const (
	// BufferCount is the number of backend buffers a StreamSource cycles.
	BufferCount = 3
	// FramesPerBuffer is the size of one refill.
	FramesPerBuffer = 4096
	// DefaultPollInterval must stay well below one buffer's playback time
	// or streams will underrun.
	DefaultPollInterval = 5 * time.Millisecond
)

// Option configures a Device.
type Option func(*Device)

// WithPollInterval sets how often stream sources are refilled.
// Non-positive values keep the default.
func WithPollInterval(d time.Duration) Option {
	return func(dev *Device) {
		if d > 0 {
			dev.interval = d
		}
	}
}

// WithLogger sets the logger for the device and its sources.
func WithLogger(l *log.Logger) Option {
	return func(dev *Device) {
		if l != nil {
			dev.logger = l
		}
	}
}
