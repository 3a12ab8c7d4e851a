package siser

import (
	"time"
)

// TimeToUnixMillisecond converts t into Unix epoch time in milliseconds.
// That's because seconds is not enough precision and nanoseconds is too much.
func TimeToUnixMillisecond(t time.Time) int64 {
	n := t.UnixNano()
	return n / 1e6
}
