// SPDX-License-Identifier: EPL-2.0

package engine

import "sync"

// endSignal wakes callers blocked in WaitUntilEnded.
//
// It has its own lock because backends deliver end callbacks on their own
// goroutines, where taking a source lock could deadlock against a caller
// that holds it while talking to the backend.
type endSignal struct {
	mu     sync.Mutex
	ch     chan struct{}
	closed bool
	ended  bool // set only when playback ran out on its own
	run    uint64
}

func newEndSignal() *endSignal {
	return &endSignal{ch: make(chan struct{})}
}

// reset arms the signal for a new run of playback and returns the run
// number finishRun expects.
func (e *endSignal) reset() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.run++
	e.ended = false
	if e.closed {
		e.ch = make(chan struct{})
		e.closed = false
	}

	return e.run
}

// finish marks natural completion and wakes every waiter.
func (e *endSignal) finish() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ended = true
	e.wakeLocked()
}

// finishRun is finish for a backend callback that may arrive after a
// later reset. Callbacks from an earlier run are dropped.
func (e *endSignal) finishRun(run uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if run != e.run {
		return
	}
	e.ended = true
	e.wakeLocked()
}

// wake releases waiters without marking completion, for Stop, Unbind and
// Close.
func (e *endSignal) wake() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.wakeLocked()
}

func (e *endSignal) wakeLocked() {
	if !e.closed {
		close(e.ch)
		e.closed = true
	}
}

func (e *endSignal) done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ch
}

func (e *endSignal) hasEnded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.ended
}
