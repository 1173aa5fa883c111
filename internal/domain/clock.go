package domain

import "github.com/jonboulle/clockwork"

// clock stamps assessments and anchors observed-series windows. Tests freeze it
// with SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
