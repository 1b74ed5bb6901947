package cccv

// RateLimitPeriod is the minimum time between outbound encode passes (200 Hz)
const RateLimitPeriod = 1 / 200.0

// Timer accumulates elapsed time
type Timer struct {
	Time float32
}

// Process adds dt and returns the accumulated time
func (t *Timer) Process(dt float32) float32 {
	t.Time += dt
	return t.Time
}

// Reset zeroes the timer
func (t *Timer) Reset() {
	t.Time = 0
}

// Gate reports whether period has elapsed. On success the period is
// subtracted, not zeroed, so overshoot carries into the next period.
func (t *Timer) Gate(dt, period float32) bool {
	if t.Process(dt) < period {
		return false
	}
	t.Time -= period
	return true
}
