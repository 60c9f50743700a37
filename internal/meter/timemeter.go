package meter

import "time"

// TimeMeter accumulates wall-clock time across resume/stop cycles.
type TimeMeter struct {
	elapsed time.Duration
	started time.Time
	running bool
}

// NewTimeMeter returns a stopped meter with zero elapsed time.
func NewTimeMeter() *TimeMeter {
	return &TimeMeter{}
}

// Resume starts (or restarts) the clock. Resuming a running meter is a no-op.
func (t *TimeMeter) Resume() {
	if t.running {
		return
	}
	t.started = time.Now()
	t.running = true
}

// Stop halts the clock and folds the running interval into the total.
func (t *TimeMeter) Stop() {
	if !t.running {
		return
	}
	t.elapsed += time.Since(t.started)
	t.running = false
}

// Seconds returns the total accumulated time in seconds, including the
// current interval when the meter is running.
func (t *TimeMeter) Seconds() float64 {
	total := t.elapsed
	if t.running {
		total += time.Since(t.started)
	}
	return total.Seconds()
}

// Reset stops the meter and zeroes the total.
func (t *TimeMeter) Reset() {
	t.elapsed = 0
	t.running = false
}
