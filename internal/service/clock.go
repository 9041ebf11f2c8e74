package service

import "time"

// SystemClock reports the wall clock in a fixed location
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in c.Location (local time when unset)
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
