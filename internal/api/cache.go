package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/lox/niceenough/internal/calendar"
)

// calendarCache holds classified month buckets per location so repeated page
// loads do not re-fetch two years of archive data. Entries live in memory
// only; the weather series itself is never persisted.
type calendarCache struct {
	mu      sync.Mutex
	maxAge  time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	buckets  map[string]calendar.MonthBucket
	storedAt time.Time
}

func newCalendarCache(maxAge time.Duration) *calendarCache {
	return &calendarCache{
		maxAge:  maxAge,
		entries: make(map[string]cacheEntry),
	}
}

// cacheKey rounds coordinates to ~11m so trivially different geocoder results
// for the same place share an entry. The range end is part of the key because
// the window moves at midnight.
func cacheKey(lat, lon float64, end time.Time) string {
	return fmt.Sprintf("%.4f,%.4f:%s", lat, lon, end.Format("2006-01-02"))
}

// Get retrieves cached buckets if present and not stale.
func (c *calendarCache) Get(key string) (map[string]calendar.MonthBucket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.storedAt) > c.maxAge {
		delete(c.entries, key)
		return nil, false
	}
	return entry.buckets, true
}

// Set stores buckets for a key, evicting any stale entries on the way.
func (c *calendarCache) Set(key string, buckets map[string]calendar.MonthBucket) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, entry := range c.entries {
		if time.Since(entry.storedAt) > c.maxAge {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{buckets: buckets, storedAt: time.Now()}
}
