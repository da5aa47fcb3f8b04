package lib

import (
	"sync"
	"time"
)

// Debouncer runs the most recently scheduled action once input has been quiet
// for the scheduled delay. Scheduling again replaces the pending action.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// NewDebouncer creates an idle debouncer
func NewDebouncer() *Debouncer {
	return &Debouncer{}
}

// Schedule cancels any pending action and arms action to run after delay.
func (d *Debouncer) Schedule(action func(), delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq

	d.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		// A callback that lost the race against Schedule or Cancel is a no-op
		if seq != d.seq || d.timer == nil {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		action()
	})
}

// Cancel prevents the pending action from running. Safe when nothing is pending.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
}

// Pending reports whether an action is armed and has not started yet
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
