package filer

import "time"

// Clock supplies snapshot timestamps. Tests substitute a fixed one so that
// default restore paths are predictable.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }
