package domain

import "github.com/jonboulle/clockwork"

// clock stamps SimulatedAt on reports; tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for reports. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
