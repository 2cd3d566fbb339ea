package tracker

import "time"

type Clock interface {
	Now() time.Time
}

// SystemClock reads wall-clock time in the configured location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}
