package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 15 * time.Minute

// RedisClient is the subset of redis.Client the store uses, narrowed so
// tests can stub it.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Store is a latest-value read model keyed by (kind, symbol). Values land in
// Redis when a client is configured and in a process-local map otherwise, so
// reads behave the same with or without Redis.
type Store struct {
	redis RedisClient
	ttl   time.Duration

	mu    sync.RWMutex
	local map[string]entry
}

type entry struct {
	payload   []byte
	expiresAt time.Time
}

func NewStore(redisClient RedisClient) *Store {
	return &Store{
		redis: redisClient,
		ttl:   defaultTTL,
		local: make(map[string]entry),
	}
}

func metricKey(kind, symbol string) string {
	return fmt.Sprintf("metric:%s:%s", kind, symbol)
}

// Publish stores the latest value for a (kind, symbol) pair, overwriting the
// previous one.
func (s *Store) Publish(ctx context.Context, kind, symbol string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal metric %s/%s: %w", kind, symbol, err)
	}
	key := metricKey(kind, symbol)

	if s.redis != nil {
		return s.redis.Set(ctx, key, data, s.ttl).Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.local[key] = entry{payload: data, expiresAt: time.Now().Add(s.ttl)}
	return nil
}

// Load reads the latest value for a (kind, symbol) pair into out. The second
// return is false when nothing fresh is stored.
func (s *Store) Load(ctx context.Context, kind, symbol string, out any) (bool, error) {
	key := metricKey(kind, symbol)

	if s.redis != nil {
		data, err := s.redis.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, json.Unmarshal(data, out)
	}

	s.mu.RLock()
	e, ok := s.local[key]
	s.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return false, nil
	}
	return true, json.Unmarshal(e.payload, out)
}
