package buttons

import "time"

// Debouncer filters the contact bounce of a single active-low button.
// A press is reported once the pin has been low for the whole interval, and
// the next press only after it has been high for the whole interval.
type Debouncer struct {
	interval time.Duration

	initialized bool
	low         bool
	since       time.Time
	latched     bool
}

func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Update feeds one sample taken at now and reports whether it completes a
// press.
func (d *Debouncer) Update(low bool, now time.Time) bool {
	if !d.initialized {
		// A button held down at startup has to be released first.
		d.initialized = true
		d.low = low
		d.since = now
		d.latched = low
		return false
	}

	if low != d.low {
		d.low = low
		d.since = now
	}

	if now.Sub(d.since) < d.interval {
		return false
	}

	if d.low && !d.latched {
		d.latched = true
		return true
	}
	if !d.low {
		d.latched = false
	}
	return false
}
