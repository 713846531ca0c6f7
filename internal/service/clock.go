package service

import (
	"time"

	"wallet-ledger-service/internal/core/ports"
)

// systemClock implements ports.Clock using the wall clock in UTC.
type systemClock struct{}

// NewSystemClock returns the production time source.
func NewSystemClock() ports.Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
