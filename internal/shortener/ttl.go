package shortener

import "time"

// cacheTTL is how long a link may live in the cache at now.
//
// Links with an expiry get the remaining lifetime floored to whole seconds,
// so the cache entry never outlives the record. ok is false when nothing
// should be cached. Links without expiry use fallback (0: no cache expiry).
func cacheTTL(link Link, now time.Time, fallback time.Duration) (ttl time.Duration, ok bool) {
	if link.ExpiresAt == nil {
		return fallback, true
	}

	remaining := link.ExpiresAt.Sub(now).Truncate(time.Second)
	if remaining <= 0 {
		return 0, false
	}
	return remaining, true
}
