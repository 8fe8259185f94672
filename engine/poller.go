// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type updater interface {
	update()
}

// poller runs update on every tracked source at a fixed interval.
//
// A whole tick runs under mu, so once untrack returns the source is not
// inside update and will not be called again. Sources must never call
// track or untrack while holding their own lock, since tick takes mu
// first and the source lock second.
type poller struct {
	mu      sync.Mutex
	sources map[uuid.UUID]updater

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newPoller(interval time.Duration) *poller {
	p := &poller{
		sources: make(map[uuid.UUID]updater),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run(interval)

	return p
}

func (p *poller) run(interval time.Duration) {
	defer close(p.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *poller) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.sources {
		s.update()
	}
}

func (p *poller) track(id uuid.UUID, s updater) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sources[id] = s
}

func (p *poller) untrack(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.sources, id)
}

func (p *poller) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.sources)
}

// close stops the loop and waits for a running tick to finish.
func (p *poller) close() {
	p.once.Do(func() {
		close(p.stop)
		<-p.done
	})
}
