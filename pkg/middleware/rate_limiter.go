package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig 限流配置
//
// Rate: "100-M"、"10-S" 这样的 ulule 速率格式。
// PerRouteRates 按路由覆盖全局速率，SkipPaths 前缀匹配跳过限流。
type RateLimiterConfig struct {
	Rate          string            `json:"rate"`
	PerRouteRates map[string]string `json:"per_route_rates"`
	SkipPaths     []string          `json:"skip_paths"`
	AddHeaders    bool              `json:"add_headers"`
}

// RateLimiter 按 IP 限流，每个速率缓存一个 limiter 实例
type RateLimiter struct {
	mu       sync.RWMutex
	cfg      RateLimiterConfig
	store    limiter.Store
	limiters map[string]*limiter.Limiter
}

// NewRateLimiter 创建限流器，store 为 nil 时使用内存存储
func NewRateLimiter(cfg RateLimiterConfig, store limiter.Store) *RateLimiter {
	if store == nil {
		store = memory.NewStore()
	}
	if cfg.Rate == "" {
		cfg.Rate = "100-M"
	}
	return &RateLimiter{
		cfg:      cfg,
		store:    store,
		limiters: make(map[string]*limiter.Limiter),
	}
}

// UpdateConfig 动态更新限流配置
func (l *RateLimiter) UpdateConfig(cfg RateLimiterConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cfg.Rate == "" {
		cfg.Rate = "100-M"
	}
	l.cfg = cfg
}

// Config 当前配置的拷贝
func (l *RateLimiter) Config() RateLimiterConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Middleware 返回 Gin 中间件
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := l.Config()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		for _, pref := range cfg.SkipPaths {
			if pref != "" && strings.HasPrefix(path, pref) {
				c.Next()
				return
			}
		}

		lim := l.limiterFor(l.rateFor(cfg, path))
		lctx, err := lim.Get(c, "ip:"+c.ClientIP())
		if err != nil {
			c.Next()
			return
		}
		if cfg.AddHeaders {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		}
		if lctx.Reached {
			retry := int(time.Until(time.Unix(lctx.Reset, 0)).Seconds())
			if retry < 0 {
				retry = 0
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests"})
			return
		}
		c.Next()
	}
}

func (l *RateLimiter) rateFor(cfg RateLimiterConfig, path string) string {
	if r, ok := cfg.PerRouteRates[path]; ok && r != "" {
		return r
	}
	return cfg.Rate
}

func (l *RateLimiter) limiterFor(rateStr string) *limiter.Limiter {
	l.mu.RLock()
	lim, ok := l.limiters[rateStr]
	l.mu.RUnlock()
	if ok {
		return lim
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if lim, ok = l.limiters[rateStr]; ok {
		return lim
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		rate = limiter.Rate{Period: time.Minute, Limit: 100}
	}
	lim = limiter.New(l.store, rate)
	l.limiters[rateStr] = lim
	return lim
}
