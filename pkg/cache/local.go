package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// localCache 基于 go-cache 的进程内实现
type localCache struct {
	cache *gocache.Cache
}

// NewLocalCache 创建本地缓存
func NewLocalCache(config LocalConfig) Cache {
	if config.DefaultExpiration <= 0 {
		config.DefaultExpiration = 5 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 10 * time.Minute
	}
	return &localCache{
		cache: gocache.New(config.DefaultExpiration, config.CleanupInterval),
	}
}

func (lc *localCache) Get(_ context.Context, key string) (interface{}, bool) {
	return lc.cache.Get(key)
}

func (lc *localCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	lc.cache.Set(key, value, expiration)
	return nil
}

func (lc *localCache) Delete(_ context.Context, key string) error {
	lc.cache.Delete(key)
	return nil
}

func (lc *localCache) Exists(_ context.Context, key string) bool {
	_, found := lc.cache.Get(key)
	return found
}

func (lc *localCache) Clear(_ context.Context) error {
	lc.cache.Flush()
	return nil
}

func (lc *localCache) Increment(_ context.Context, key string, value int64) (int64, error) {
	n, err := lc.cache.IncrementInt64(key, value)
	if err != nil {
		// 键不存在时从 0 开始
		lc.cache.Set(key, value, gocache.DefaultExpiration)
		return value, nil
	}
	return n, nil
}

func (lc *localCache) Close() error {
	lc.cache.Flush()
	return nil
}
