package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"WildVoice/pkg/cache"
)

// IdempotencyConfig 重复提交保护配置
type IdempotencyConfig struct {
	HeaderName string        // 默认 Idempotency-Key
	TTL        time.Duration // 重复请求的拒绝窗口
}

// Idempotency 在 TTL 窗口内拒绝携带相同幂等键的请求。
// 未带键的请求以请求体哈希作为兜底键。
func Idempotency(store cache.Cache, cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" {
			b, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(b))
			h := sha256.Sum256(b)
			key = hex.EncodeToString(h[:])
		}
		key = "idem:" + key
		if store.Exists(c, key) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "duplicate request"})
			return
		}
		_ = store.Set(c, key, 1, cfg.TTL)
		c.Next()
	}
}
