// Package clock abstracts the source of "now" for everything in the engine
// that depends on time: wait deadlines, note timers and the timer sensor.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

// Now implements Clock.
func (Real) Now() time.Time { return time.Now() }

// Virtual is a manually advanced clock for deterministic runs and tests.
// The zero value starts at the Unix epoch.
type Virtual struct {
	mu  sync.Mutex
	now time.Time
}

// NewVirtual returns a virtual clock set to start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now implements Clock.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.now.IsZero() {
		return time.Unix(0, 0)
	}
	return v.now
}

// Set moves the clock to t. Moving backwards is allowed.
func (v *Virtual) Set(t time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.now = t
}

// Advance moves the clock forward by d and returns the new instant.
func (v *Virtual) Advance(d time.Duration) time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.now.IsZero() {
		v.now = time.Unix(0, 0)
	}
	v.now = v.now.Add(d)
	return v.now
}

// Seconds converts a float number of seconds to a Duration. Negative and NaN
// inputs are zero.
func Seconds(s float64) time.Duration {
	if !(s > 0) {
		return 0
	}
	d := s * float64(time.Second)
	if d > float64(1<<62) {
		return time.Duration(1 << 62)
	}
	return time.Duration(d)
}
