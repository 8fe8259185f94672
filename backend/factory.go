// SPDX-License-Identifier: EPL-2.0

package backend

import (
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
)

// Factory builds a backend from a validated config.
type Factory func(cfg Config, logger *log.Logger) (Backend, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[Name]Factory)
)

// autoOrder is the preference order for Auto.
var autoOrder = []Name{Malgo, Oto}

// Register makes a backend available to New. Backend packages call it from
// init, so importing one for side effects is enough to enable it.
func Register(name Name, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	factories[name] = f
}

// Available lists the registered backend names, sorted.
func Available() []Name {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]Name, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

func lookup(name Name) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	f, ok := factories[name]
	return f, ok
}

// New creates the backend named by cfg.Backend. Auto tries every real
// output in preference order and returns the first that starts.
func New(cfg Config, logger *log.Logger) (Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}

	logger.Debug("creating audio backend",
		"backend", cfg.Backend,
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"format", cfg.Format,
		"buffer_ms", cfg.BufferDuration.Milliseconds(),
	)

	if cfg.Backend != Auto {
		f, ok := lookup(cfg.Backend)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
		}
		return f(cfg, logger)
	}

	var lastErr error = ErrUnavailable
	for _, name := range autoOrder {
		f, ok := lookup(name)
		if !ok {
			continue
		}

		b, err := f(cfg, logger)
		if err == nil {
			return b, nil
		}
		logger.Debug("backend unavailable", "backend", name, "err", err)
		lastErr = err
	}

	return nil, fmt.Errorf("%w: no output backend started: %w", ErrInvalidDevice, lastErr)
}
