package progress

import (
	"sync"
	"time"
)

// Debouncer runs only the most recently scheduled task, once the interval
// passes without another Schedule. It owns its timer; Stop drains it.
type Debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending func()
	stopped bool
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Schedule replaces any pending task with fn and restarts the quiet window.
// Ignored after Stop.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopTimerLocked()
	d.gen++
	gen := d.gen
	d.pending = fn
	d.timer = time.AfterFunc(d.interval, func() { d.fire(gen) })
}

// Cancel drops the pending task. Reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	had := d.pending != nil
	d.stopTimerLocked()
	d.gen++
	d.pending = nil
	return had
}

// Flush runs the pending task now, on the caller's goroutine.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fn := d.pending
	d.stopTimerLocked()
	d.gen++
	d.pending = nil
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Pending reports whether a task is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Stop cancels the pending task and rejects future ones.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopTimerLocked()
	d.gen++
	d.pending = nil
	d.stopped = true
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A newer Schedule, Cancel or Stop superseded this timer
	if gen != d.gen || d.stopped || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

func (d *Debouncer) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
