package utils

import (
	"time"
)

// UnixTimeToTime converts a Unix timestamp to UTC. Zero maps to now.
func UnixTimeToTime(unixTime int64) time.Time {
	if unixTime == 0 {
		return time.Now().UTC()
	}
	return time.Unix(unixTime, 0).UTC()
}
