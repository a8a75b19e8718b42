// Package clock abstracts time so backoff and reclaim logic can be driven
// deterministically from tests, per the CoreServices.clock requirement.
package clock

import "time"

// Clock is the minimal surface the core needs from time.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
	After(d time.Duration) <-chan time.Time
}

// Real is the production Clock, backed by the standard library.
type Real struct{}

func (Real) Now() time.Time                  { return time.Now() }
func (Real) Sleep(d time.Duration)           { time.Sleep(d) }
func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }
