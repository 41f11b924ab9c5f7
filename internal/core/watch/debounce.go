package watch

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Debouncer coalesces pushed paths until the burst goes quiet for a delay,
// then hands the sorted batch to the fire callback. Every Push restarts the
// timer, so a steady stream keeps extending the window.
type Debouncer struct {
	delay     time.Duration
	delayFunc func(pending int) time.Duration
	fire      func(paths []string)

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{}
}

func NewDebouncer(delay time.Duration, fire func(paths []string)) *Debouncer {
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	return &Debouncer{
		delay:   delay,
		fire:    fire,
		pending: map[string]struct{}{},
	}
}

// SetDelayFunc installs a delay that scales with the pending batch size, so
// mass file operations wait longer before triggering work.
func (d *Debouncer) SetDelayFunc(fn func(pending int) time.Duration) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.delayFunc = fn
	d.mu.Unlock()
}

// DelayFor reports the delay used for a batch of the given size. The base
// delay backs any unset or non-positive answer from the delay func.
func (d *Debouncer) DelayFor(pending int) time.Duration {
	if d == nil {
		return 0
	}
	if d.delayFunc == nil {
		return d.delay
	}
	delay := d.delayFunc(pending)
	if delay <= 0 {
		return d.delay
	}
	return delay
}

func (d *Debouncer) Push(path string) {
	if d == nil {
		return
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}

	d.mu.Lock()
	d.pending[path] = struct{}{}
	delay := d.DelayFor(len(d.pending))
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(delay, d.emit)
	d.mu.Unlock()
}

// Flush fires whatever is pending right now instead of waiting out the
// delay.
func (d *Debouncer) Flush() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.emit()
}

// Stop drops the pending batch without firing.
func (d *Debouncer) Stop() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = map[string]struct{}{}
	d.mu.Unlock()
}

func (d *Debouncer) emit() {
	d.mu.Lock()
	batch := d.pending
	d.pending = map[string]struct{}{}
	fn := d.fire
	d.mu.Unlock()

	if fn == nil || len(batch) == 0 {
		return
	}

	paths := make([]string, 0, len(batch))
	for p := range batch {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	fn(paths)
}
