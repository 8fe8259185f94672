// SPDX-License-Identifier: EPL-2.0

package backend

import (
	"errors"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend satisfies Backend by embedding; only SampleRate is called.
type stubBackend struct {
	Backend
	rate int
}

func (s stubBackend) SampleRate() int { return s.rate }

func withFactories(t *testing.T, f map[Name]Factory) {
	t.Helper()

	factoriesMu.Lock()
	saved := factories
	factories = f
	factoriesMu.Unlock()

	t.Cleanup(func() {
		factoriesMu.Lock()
		factories = saved
		factoriesMu.Unlock()
	})
}

func TestNewNamed(t *testing.T) {
	withFactories(t, map[Name]Factory{})
	Register("stub", func(cfg Config, _ *log.Logger) (Backend, error) {
		return stubBackend{rate: cfg.SampleRate}, nil
	})

	cfg := DefaultConfig()
	cfg.Backend = "stub"
	b, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 44100, b.SampleRate())
	assert.Equal(t, []Name{"stub"}, Available())

	cfg.Backend = "nope"
	_, err = New(cfg, nil)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNewValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = -1

	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewAutoPrefersWorkingBackend(t *testing.T) {
	broken := errors.New("no sound card")
	withFactories(t, map[Name]Factory{
		Malgo: func(Config, *log.Logger) (Backend, error) { return nil, broken },
		Oto:   func(Config, *log.Logger) (Backend, error) { return stubBackend{rate: 1}, nil },
	})

	b, err := New(DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, b.SampleRate())
}

func TestNewAutoNothingWorks(t *testing.T) {
	broken := errors.New("no sound card")
	withFactories(t, map[Name]Factory{
		Oto: func(Config, *log.Logger) (Backend, error) { return nil, broken },
	})

	_, err := New(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidDevice)
	assert.ErrorIs(t, err, broken)

	withFactories(t, map[Name]Factory{})
	_, err = New(DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}
