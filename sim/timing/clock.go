package timing

import (
	"time"

	"k8s.io/utils/clock"
)

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	Now() time.Time
}

// A Timer is a pending one-shot callback.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the
	// callback has already fired or the timer was already stopped.
	Stop() bool
}

// A Clock tells time and fires one-shot callbacks after a delay.
type Clock interface {
	TimeTeller

	// AfterFunc calls f in its own goroutine (RealClock) or on the goroutine
	// advancing the clock (ManualClock) once d has elapsed.
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct {
	clock clock.WithDelayedExecution
}

// NewRealClock returns a Clock that follows the wall clock.
func NewRealClock() Clock {
	return realClock{clock: clock.RealClock{}}
}

func (c realClock) Now() time.Time {
	return c.clock.Now()
}

func (c realClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.clock.AfterFunc(d, f)
}
