package client

import (
	"sync"
	"time"
)

// debouncer coalesces rapid successive calls into one, firing the last
// scheduled function after a quiet period. Owned by the Client that created
// it and cancelled on Close.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

// schedule replaces any pending invocation with fn. fn receives a token it
// can later pass to latest to detect that a newer schedule superseded it
// while it was running.
func (d *debouncer) schedule(fn func(token uint64)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	token := d.gen
	d.timer = time.AfterFunc(d.delay, func() { fn(token) })
}

// latest reports whether token still identifies the most recent schedule
func (d *debouncer) latest(token uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.stopped && token == d.gen
}

// stop cancels any pending invocation and disables the debouncer
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// readMarker arms a single-shot timer per selection. A new selection (or
// teardown) cancels the pending mark-as-read action before it fires.
type readMarker struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	stopped bool
}

func newReadMarker(delay time.Duration) *readMarker {
	return &readMarker{delay: delay}
}

// arm schedules fn, cancelling any previously armed action
func (m *readMarker) arm(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.delay, fn)
}

// stop cancels any pending action and disables the marker
func (m *readMarker) stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
