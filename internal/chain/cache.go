package chain

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache stores recent RPC balance results so public providers are not
// hammered on every lookup.
type Cache interface {
	Get(ctx context.Context, address string) (BalancePair, bool)
	Set(ctx context.Context, address string, pair BalancePair)
}

type memoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	pair     BalancePair
	storedAt time.Time
}

// NewMemoryCache returns an in-process cache with the given TTL.
func NewMemoryCache(ttl time.Duration) Cache {
	if ttl <= 0 {
		ttl = cacheTTL
	}
	return &memoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *memoryCache) Get(_ context.Context, address string) (BalancePair, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[strings.ToLower(address)]
	if !ok || c.now().Sub(entry.storedAt) >= c.ttl {
		return BalancePair{}, false
	}
	return entry.pair, true
}

func (c *memoryCache) Set(_ context.Context, address string, pair BalancePair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[strings.ToLower(address)] = memoryEntry{pair: pair, storedAt: c.now()}
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache returns a cache backed by Redis, for deployments running
// more than one instance.
func NewRedisCache(url string, ttl time.Duration) (Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = cacheTTL
	}
	return &redisCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

func balanceKey(address string) string {
	return "balance:" + strings.ToLower(address)
}

func (c *redisCache) Get(ctx context.Context, address string) (BalancePair, bool) {
	raw, err := c.client.Get(ctx, balanceKey(address)).Bytes()
	if err != nil {
		return BalancePair{}, false
	}
	var pair BalancePair
	if err := json.Unmarshal(raw, &pair); err != nil {
		return BalancePair{}, false
	}
	return pair, true
}

func (c *redisCache) Set(ctx context.Context, address string, pair BalancePair) {
	raw, err := json.Marshal(pair)
	if err != nil {
		return
	}
	c.client.Set(ctx, balanceKey(address), raw, c.ttl)
}
