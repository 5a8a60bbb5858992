package common

import "time"

// Freshness TTLs for externally sourced data.
//
// The USD/BRL rate is quote data: short TTL, re-fetched on access, with the
// last known value reused when every provider is down. Official rate series
// (CDI, IPCA) are upstream facts for a closed window and are memoized for the
// process lifetime instead.
const (
	FreshnessFXRate = 5 * time.Minute
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
