package groups

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/groupdir-io/groupdir/internal/models"
)

// Loader is the backing lookup a Cache falls through to on a miss.
// Implemented by *Store.
type Loader interface {
	GetByUUID(ctx context.Context, id models.GroupUUID) (*models.Group, error)
}

// Cache is a read-through group-by-uuid cache: an in-process TTL map,
// optionally layered over Redis, in front of the store. Negative results
// are not cached, so a freshly created group is visible immediately.
type Cache struct {
	loader Loader
	redis  *redis.Client
	ttl    time.Duration

	mu     sync.RWMutex
	local  map[models.GroupUUID]*cacheEntry
	stopCh chan struct{}
}

type cacheEntry struct {
	group     *models.Group
	expiresAt time.Time
}

// CacheOptions configures a group Cache.
type CacheOptions struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Redis         *redis.Client // nil disables the Redis layer
}

// NewCache creates a read-through cache in front of the loader and starts
// the expiry sweep.
func NewCache(loader Loader, opts CacheOptions) *Cache {
	if opts.TTL == 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.SweepInterval == 0 {
		opts.SweepInterval = time.Minute
	}
	c := &Cache{
		loader: loader,
		redis:  opts.Redis,
		ttl:    opts.TTL,
		local:  make(map[models.GroupUUID]*cacheEntry),
		stopCh: make(chan struct{}),
	}
	go c.sweepLoop(opts.SweepInterval)
	return c
}

// Get returns the group with the given uuid, or (nil, nil) if no such
// group exists. Errors are operational failures of the store or Redis.
func (c *Cache) Get(ctx context.Context, id models.GroupUUID) (*models.Group, error) {
	if g, ok := c.getLocal(id); ok {
		return g, nil
	}

	if c.redis != nil {
		if g, ok := c.getRedis(ctx, id); ok {
			c.setLocal(id, g)
			return g, nil
		}
	}

	g, err := c.loader.GetByUUID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, nil
	}

	c.setLocal(id, g)
	if c.redis != nil {
		c.setRedis(ctx, id, g)
	}
	return g, nil
}

// Invalidate drops a group from every cache layer.
func (c *Cache) Invalidate(ctx context.Context, id models.GroupUUID) {
	c.mu.Lock()
	delete(c.local, id)
	c.mu.Unlock()

	if c.redis != nil {
		if err := c.redis.Del(ctx, redisKey(id)).Err(); err != nil {
			log.Printf("group cache: redis delete %s: %v", id, err)
		}
	}
}

// Close stops the expiry sweep goroutine.
func (c *Cache) Close() {
	close(c.stopCh)
}

func (c *Cache) getLocal(id models.GroupUUID) (*models.Group, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.local[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.group, true
}

func (c *Cache) setLocal(id models.GroupUUID, g *models.Group) {
	c.mu.Lock()
	c.local[id] = &cacheEntry{group: g, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) getRedis(ctx context.Context, id models.GroupUUID) (*models.Group, bool) {
	data, err := c.redis.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("group cache: redis get %s: %v", id, err)
		}
		return nil, false
	}
	var g models.Group
	if err := json.Unmarshal(data, &g); err != nil {
		log.Printf("group cache: decode %s: %v", id, err)
		return nil, false
	}
	return &g, true
}

func (c *Cache) setRedis(ctx context.Context, id models.GroupUUID, g *models.Group) {
	data, err := json.Marshal(g)
	if err != nil {
		log.Printf("group cache: encode %s: %v", id, err)
		return
	}
	if err := c.redis.Set(ctx, redisKey(id), data, c.ttl).Err(); err != nil {
		log.Printf("group cache: redis set %s: %v", id, err)
	}
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for id, entry := range c.local {
				if now.After(entry.expiresAt) {
					delete(c.local, id)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

func redisKey(id models.GroupUUID) string {
	return "groupdir:group:" + string(id)
}
