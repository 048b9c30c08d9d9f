// Package debounce provides a trailing-edge, per-key debouncer used to
// coalesce bursts of persistence work into a single effect.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays an effect until a quiet period has elapsed since the last
// Trigger for the same key. Each key owns at most one timer; re-triggering a
// key replaces the pending effect and restarts its timer.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[string]*entry
	stopped bool
}

type entry struct {
	timer *time.Timer
	fn    func()
}

// New builds a debouncer with the provided quiet period.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		pending: map[string]*entry{},
	}
}

// Trigger schedules fn to run after the quiet period, replacing any effect
// already pending for key. The latest fn wins; earlier ones never run.
func (d *Debouncer) Trigger(key string, fn func()) {
	if fn == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if prev, ok := d.pending[key]; ok {
		prev.timer.Stop()
	}

	e := &entry{fn: fn}
	e.timer = time.AfterFunc(d.delay, func() {
		d.fire(key, e)
	})
	d.pending[key] = e
}

// Flush runs the pending effect for key immediately, if any.
func (d *Debouncer) Flush(key string) {
	d.mu.Lock()
	e, ok := d.pending[key]
	if ok {
		e.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()

	if ok {
		e.fn()
	}
}

// FlushAll drains every pending effect synchronously.
func (d *Debouncer) FlushAll() {
	d.mu.Lock()
	drained := make([]*entry, 0, len(d.pending))
	for key, e := range d.pending {
		e.timer.Stop()
		delete(d.pending, key)
		drained = append(drained, e)
	}
	d.mu.Unlock()

	for _, e := range drained {
		e.fn()
	}
}

// Cancel drops the pending effect for key without running it.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.pending[key]; ok {
		e.timer.Stop()
		delete(d.pending, key)
	}
}

// Stop cancels all pending effects and rejects further triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, e := range d.pending {
		e.timer.Stop()
		delete(d.pending, key)
	}
}

func (d *Debouncer) fire(key string, e *entry) {
	d.mu.Lock()
	current, ok := d.pending[key]
	if !ok || current != e {
		// A newer trigger replaced or flushed this entry.
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	e.fn()
}
