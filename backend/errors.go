// SPDX-License-Identifier: EPL-2.0

package backend

import (
	"errors"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	// ErrInvalidDevice is returned when no output context could be created.
	ErrInvalidDevice = errors.New("invalid audio device")

	ErrInvalidBuffer  = errors.New("invalid buffer")
	ErrInvalidSource  = errors.New("invalid source")
	ErrInvalidValue   = errors.New("invalid value")
	ErrInvalidConfig  = errors.New("invalid backend config")
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrUnavailable is returned by backends compiled without their driver.
	ErrUnavailable = errors.New("backend not available in this build")

	// ErrBufferInUse is returned when deleting or uploading a queued buffer.
	ErrBufferInUse = errors.New("buffer in use")
)

// ErrorHandler receives backend call failures that the engine swallows.
type ErrorHandler func(err error)

var (
	handlerMu sync.RWMutex
	handler   ErrorHandler = defaultHandler
	stderrLog              = log.NewWithOptions(os.Stderr, log.Options{Prefix: "capo"})
)

func defaultHandler(err error) {
	stderrLog.Error("backend call failed", "err", err)
}

// SetErrorHandler replaces the process-wide handler and returns the
// previous one. A nil handler discards errors.
func SetErrorHandler(h ErrorHandler) ErrorHandler {
	handlerMu.Lock()
	defer handlerMu.Unlock()

	prev := handler
	handler = h

	return prev
}

// DefaultErrorHandler logs to standard error.
func DefaultErrorHandler() ErrorHandler { return defaultHandler }

// Check reports whether err is nil. A non-nil err is passed to the
// installed handler first.
func Check(err error) bool {
	if err == nil {
		return true
	}

	handlerMu.RLock()
	h := handler
	handlerMu.RUnlock()

	if h != nil {
		h(err)
	}

	return false
}
