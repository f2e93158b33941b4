package taskdesk

import (
	"context"
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultPendingTTL bounds how long a pending payload survives
const DefaultPendingTTL = time.Minute

// PendingPayload is an action failure kept across one redirect
type PendingPayload struct {
	Action    string       `json:"action"`
	Error     *ActionError `json:"error"`
	CreatedAt time.Time    `json:"created_at"`
}

// PendingStore holds pending payloads. Take must be atomic: a key yields
// its payload at most once.
type PendingStore interface {
	Put(ctx context.Context, payload PendingPayload) (string, error)
	Take(ctx context.Context, key string) (PendingPayload, error)
}

// NewPendingKey returns a fresh opaque key
func NewPendingKey() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return "act-" + strings.ToLower(id.String()), nil
}

type pendingEntry struct {
	payload   PendingPayload
	expiresAt time.Time
}

// MemoryPendingStore is an in process PendingStore with TTL eviction
type MemoryPendingStore struct {
	mu      sync.Mutex
	entries map[string]pendingEntry
	ttl     time.Duration
	now     func() time.Time
}

// PendingOption configures a MemoryPendingStore
type PendingOption func(*MemoryPendingStore)

// WithPendingClock overrides the time source
func WithPendingClock(now func() time.Time) PendingOption {
	return func(s *MemoryPendingStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryPendingStore creates a store; ttl <= 0 uses DefaultPendingTTL
func NewMemoryPendingStore(ttl time.Duration, opts ...PendingOption) *MemoryPendingStore {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	s := &MemoryPendingStore{
		entries: make(map[string]pendingEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Put stores payload under a new key
func (s *MemoryPendingStore) Put(ctx context.Context, payload PendingPayload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key, err := NewPendingKey()
	if err != nil {
		return "", err
	}

	now := s.now()
	if payload.CreatedAt.IsZero() {
		payload.CreatedAt = now
	}
	payload.Error = payload.Error.clone()

	s.mu.Lock()
	s.entries[key] = pendingEntry{payload: payload, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()

	return key, nil
}

// Take returns and deletes the payload for key
func (s *MemoryPendingStore) Take(ctx context.Context, key string) (PendingPayload, error) {
	if err := ctx.Err(); err != nil {
		return PendingPayload{}, err
	}

	s.mu.Lock()
	entry, ok := s.entries[key]
	delete(s.entries, key)
	s.mu.Unlock()

	if !ok || !s.now().Before(entry.expiresAt) {
		return PendingPayload{}, ErrPendingNotFound
	}

	return entry.payload, nil
}

// Len returns the number of stored entries, expired ones included
func (s *MemoryPendingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were removed
func (s *MemoryPendingStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done
func (s *MemoryPendingStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
