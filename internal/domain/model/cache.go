package model

import "time"

// CacheEntry is a serialized value held by a cache store. ExpiresAt marks
// the end of freshness; the store may keep the entry longer for stale reads.
type CacheEntry struct {
	Value     []byte    `json:"value"`
	StoredAt  time.Time `json:"stored_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (e *CacheEntry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}
