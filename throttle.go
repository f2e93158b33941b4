package taskdesk

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginThrottle limits login attempts per identifier with a token bucket.
type LoginThrottle struct {
	mu       sync.RWMutex
	limiters map[string]*throttleEntry
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginThrottle allows perMinute attempts with the given burst
func NewLoginThrottle(perMinute, burst int) *LoginThrottle {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 5
	}
	return &LoginThrottle{
		limiters: make(map[string]*throttleEntry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		idle:     15 * time.Minute,
		now:      time.Now,
	}
}

// Allow consumes one attempt for identifier
func (t *LoginThrottle) Allow(identifier string) bool {
	if t == nil {
		return true
	}
	key := strings.ToLower(strings.TrimSpace(identifier))
	if key == "" {
		return true
	}
	now := t.now()
	return t.getOrCreate(key, now).AllowN(now, 1)
}

func (t *LoginThrottle) getOrCreate(key string, now time.Time) *rate.Limiter {
	t.mu.RLock()
	entry, exists := t.limiters[key]
	t.mu.RUnlock()

	if exists {
		t.mu.Lock()
		entry.lastSeen = now
		t.mu.Unlock()
		return entry.limiter
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Double-check after acquiring write lock
	if entry, exists := t.limiters[key]; exists {
		entry.lastSeen = now
		return entry.limiter
	}

	entry = &throttleEntry{limiter: rate.NewLimiter(t.limit, t.burst), lastSeen: now}
	t.limiters[key] = entry
	return entry.limiter
}

// Prune drops limiters idle for longer than the idle window
func (t *LoginThrottle) Prune() int {
	cutoff := t.now().Add(-t.idle)

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, entry := range t.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(t.limiters, key)
			removed++
		}
	}
	return removed
}
