package illustrate

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yungbote/lecturenotes-backend/internal/platform/rediscache"
)

// Cache maps a prompt key to a hosted image URL.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, url string)
}

type memoryCache struct {
	c *gocache.Cache
}

// NewMemoryCache keeps entries in process for ttl.
func NewMemoryCache(ttl time.Duration) Cache {
	return &memoryCache{c: gocache.New(ttl, 10*time.Minute)}
}

func (m *memoryCache) Get(_ context.Context, key string) (string, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (m *memoryCache) Set(_ context.Context, key, url string) {
	m.c.Set(key, url, gocache.DefaultExpiration)
}

type redisCache struct {
	store rediscache.Store
	ttl   time.Duration
}

// NewRedisCache shares illustrations across processes. Redis errors read as misses.
func NewRedisCache(store rediscache.Store, ttl time.Duration) Cache {
	return &redisCache{store: store, ttl: ttl}
}

func (r *redisCache) Get(ctx context.Context, key string) (string, bool) {
	v, ok, err := r.store.Get(ctx, "illustration:"+key)
	if err != nil || !ok {
		return "", false
	}
	return v, true
}

func (r *redisCache) Set(ctx context.Context, key, url string) {
	_ = r.store.Set(ctx, "illustration:"+key, url, r.ttl)
}
