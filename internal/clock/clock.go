// Package clock provides a time source abstraction so expiry and rotation
// logic can be tested deterministically.
package clock

import (
	"sync"
	"time"
)

// Clock is the time source used by components with expiry or rotation logic.
type Clock interface {
	// Now returns the current time in UTC.
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

// Now returns the current system time in UTC.
func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// New creates a Clock backed by the system time.
func New() Clock {
	return realClock{}
}

// Fake is a manually controlled Clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a Fake clock starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start.UTC()}
}

// Now returns the fake clock's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set moves the fake clock to the given time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}
