// Package pendingredis keeps pending action payloads in Redis so several
// gate instances can share them.
package pendingredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-taskdesk"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces the keys written by the store
const DefaultPrefix = "taskdesk:pending:"

// ErrEmptyConnectionURL no redis url was configured
var ErrEmptyConnectionURL = errors.New("redis connection url is empty")

// Store is a taskdesk.PendingStore backed by Redis. Keys expire through the
// Redis TTL and are consumed with GETDEL.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

var _ taskdesk.PendingStore = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithPrefix overrides the key prefix
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New creates a Store; ttl <= 0 uses taskdesk.DefaultPendingTTL
func New(client redis.UniversalClient, ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = taskdesk.DefaultPendingTTL
	}

	s := &Store{
		client: client,
		ttl:    ttl,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Connect parses url and pings the server
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// Put stores payload under a new key
func (s *Store) Put(ctx context.Context, payload taskdesk.PendingPayload) (string, error) {
	key, err := taskdesk.NewPendingKey()
	if err != nil {
		return "", err
	}

	if payload.CreatedAt.IsZero() {
		payload.CreatedAt = time.Now()
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode pending payload: %w", err)
	}

	if err := s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store pending payload: %w", err)
	}

	return key, nil
}

// Take returns and deletes the payload for key
func (s *Store) Take(ctx context.Context, key string) (taskdesk.PendingPayload, error) {
	var payload taskdesk.PendingPayload

	raw, err := s.client.GetDel(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return payload, taskdesk.ErrPendingNotFound
		}
		return payload, fmt.Errorf("take pending payload: %w", err)
	}

	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, fmt.Errorf("decode pending payload: %w", err)
	}

	return payload, nil
}

// Healthcheck pings the server
func (s *Store) Healthcheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
