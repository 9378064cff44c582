package service

import "time"

// RemainingSeconds derives the time left in an attempt's window from the
// server-recorded start and the fixed duration. It is recomputed on every
// tick rather than decremented, so it stays correct across missed ticks
// (tab suspension, sweeper pauses), and it never goes negative. The caller
// owns idempotent handling of repeated zero readings.
func RemainingSeconds(now, startedAt time.Time, durationMinutes int) int64 {
	deadline := startedAt.Add(time.Duration(durationMinutes) * time.Minute)
	remaining := deadline.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int64(remaining / time.Second)
}

// Expired reports whether the attempt window has closed.
func Expired(now, startedAt time.Time, durationMinutes int) bool {
	return RemainingSeconds(now, startedAt, durationMinutes) == 0
}
