// Package debounce runs a task once input has been quiet for a fixed delay.
// Every new trigger cancels the pending run and restarts the delay.
package debounce

import (
	"sync"
	"time"
)

// Debouncer schedules fn after delay of quiescence
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	running sync.WaitGroup
}

// New creates a debouncer that calls fn delay after the last Trigger
func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn, cancelling any run still pending
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { d.run(seq) })
}

// run calls fn unless a later Trigger or Stop replaced the timer that fired
func (d *Debouncer) run(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.running.Add(1)
	d.mu.Unlock()

	defer d.running.Done()
	d.fn()
}

// Stop cancels a pending run and waits for a run already in progress to
// return. It reports whether a pending run was cancelled. fn must not call Stop.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	cancelled := d.timer != nil
	if cancelled {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.mu.Unlock()

	d.running.Wait()
	return cancelled
}
