// SPDX-License-Identifier: EPL-2.0

// Package null is an inert backend. Every primitive succeeds and keeps the
// usual buffer and source bookkeeping, but nothing is ever heard: a source
// that is played finishes at once, as if its data had zero length.
//
// It is what engine.NewDevice falls back to when Config.Fallback is set and
// no real output could be opened.
package null

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ik5/capo/backend"
	"github.com/ik5/capo/backend/soft"
)

// Backend tracks state through an unrendered soft.Mixer.
type Backend struct {
	*soft.Mixer

	mu    sync.Mutex
	onEnd map[backend.SourceID]func()
}

var _ backend.Backend = (*Backend)(nil)

func New(rate, channels int) *Backend {
	return &Backend{
		Mixer: soft.New(rate, channels),
		onEnd: make(map[backend.SourceID]func()),
	}
}

func (b *Backend) OnEnd(id backend.SourceID, fn func()) error {
	if _, err := b.Mixer.State(id); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.onEnd[id] = fn

	return nil
}

func (b *Backend) DeleteSource(id backend.SourceID) error {
	b.mu.Lock()
	delete(b.onEnd, id)
	b.mu.Unlock()

	return b.Mixer.DeleteSource(id)
}

// Play runs the source to its end immediately. The end callback fires on
// its own goroutine, as it would from a real device.
func (b *Backend) Play(id backend.SourceID) error {
	if err := b.Mixer.Play(id); err != nil {
		return err
	}

	st, err := b.Mixer.State(id)
	if err != nil || st != backend.StatePlaying {
		return err
	}
	if err := b.Mixer.Stop(id); err != nil {
		return err
	}

	b.mu.Lock()
	fn := b.onEnd[id]
	b.mu.Unlock()

	if fn != nil {
		go fn()
	}

	return nil
}

func init() {
	backend.Register(backend.Null, func(cfg backend.Config, _ *log.Logger) (backend.Backend, error) {
		return New(cfg.SampleRate, cfg.Channels), nil
	})
}
