package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	appinv "github.com/erp/pos/internal/application/inventory"
	"github.com/erp/pos/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultStockKeyPrefix = "pos:stock:"
	// generationTTL outlives any read that could race an invalidation
	generationTTL = 24 * time.Hour
)

// stockKey hash-tags the pair so the row and its generation share a slot
func stockKey(prefix string, tenantID, productID, storeID uuid.UUID) string {
	return fmt.Sprintf("%s{%s:%s:%s}", prefix, tenantID, productID, storeID)
}

func generationKey(key string) string {
	return key + ":gen"
}

// setIfGeneration writes the row only while the generation is unchanged.
// A missing generation counts as 0.
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2])
if (gen or '0') ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisStockLevelCache caches balance rows as JSON in Redis
type RedisStockLevelCache struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

// NewRedisStockLevelCache creates a Redis-backed stock level cache
func NewRedisStockLevelCache(client redis.UniversalClient, ttl time.Duration) *RedisStockLevelCache {
	return &RedisStockLevelCache{client: client, ttl: ttl, keyPrefix: defaultStockKeyPrefix}
}

// Get returns the cached row, or false on a miss
func (c *RedisStockLevelCache) Get(ctx context.Context, tenantID, productID, storeID uuid.UUID) (*inventory.Inventory, bool, error) {
	data, err := c.client.Get(ctx, stockKey(c.keyPrefix, tenantID, productID, storeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read stock cache: %w", err)
	}

	var inv inventory.Inventory
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached stock: %w", err)
	}
	return &inv, true, nil
}

// Generation returns the invalidation counter of the pair, 0 if never invalidated
func (c *RedisStockLevelCache) Generation(ctx context.Context, tenantID, productID, storeID uuid.UUID) (int64, error) {
	key := generationKey(stockKey(c.keyPrefix, tenantID, productID, storeID))
	gen, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stock cache generation: %w", err)
	}
	return gen, nil
}

// Set stores inv unless the pair was invalidated after generation was read
func (c *RedisStockLevelCache) Set(ctx context.Context, inv *inventory.Inventory, generation int64) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("failed to encode stock for cache: %w", err)
	}
	key := stockKey(c.keyPrefix, inv.TenantID, inv.ProductID, inv.StoreID)
	err = setIfGeneration.Run(ctx, c.client,
		[]string{key, generationKey(key)},
		strconv.FormatInt(generation, 10), data, c.ttl.Milliseconds(),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to write stock cache: %w", err)
	}
	return nil
}

// Invalidate removes the cached row and advances its generation
func (c *RedisStockLevelCache) Invalidate(ctx context.Context, tenantID, productID, storeID uuid.UUID) error {
	key := stockKey(c.keyPrefix, tenantID, productID, storeID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(key))
		pipe.Expire(ctx, generationKey(key), generationTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate stock cache: %w", err)
	}
	return nil
}

type stockEntry struct {
	inv       inventory.Inventory
	expiresAt time.Time
}

// InMemoryStockLevelCache is a process-local stock level cache with TTL
type InMemoryStockLevelCache struct {
	mu          sync.RWMutex
	entries     map[string]stockEntry
	generations map[string]int64
	ttl         time.Duration
	now         func() time.Time
}

// NewInMemoryStockLevelCache creates an empty in-memory cache
func NewInMemoryStockLevelCache(ttl time.Duration) *InMemoryStockLevelCache {
	return &InMemoryStockLevelCache{
		entries:     make(map[string]stockEntry),
		generations: make(map[string]int64),
		ttl:         ttl,
		now:         time.Now,
	}
}

// Get returns a copy of the cached row, or false on a miss or expiry
func (c *InMemoryStockLevelCache) Get(_ context.Context, tenantID, productID, storeID uuid.UUID) (*inventory.Inventory, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[stockKey("", tenantID, productID, storeID)]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	inv := e.inv
	return &inv, true, nil
}

// Generation returns the invalidation counter of the pair
func (c *InMemoryStockLevelCache) Generation(_ context.Context, tenantID, productID, storeID uuid.UUID) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[stockKey("", tenantID, productID, storeID)], nil
}

// Set stores a copy of inv unless the pair was invalidated after generation
func (c *InMemoryStockLevelCache) Set(_ context.Context, inv *inventory.Inventory, generation int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := stockKey("", inv.TenantID, inv.ProductID, inv.StoreID)
	if c.generations[key] != generation {
		return nil
	}
	c.entries[key] = stockEntry{
		inv:       *inv,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Invalidate removes the cached row and advances its generation
func (c *InMemoryStockLevelCache) Invalidate(_ context.Context, tenantID, productID, storeID uuid.UUID) error {
	key := stockKey("", tenantID, productID, storeID)
	c.mu.Lock()
	delete(c.entries, key)
	c.generations[key]++
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached rows
func (c *InMemoryStockLevelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var (
	_ appinv.StockLevelCache = (*RedisStockLevelCache)(nil)
	_ appinv.StockLevelCache = (*InMemoryStockLevelCache)(nil)
)
