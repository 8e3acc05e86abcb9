package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"WildVoice/internal/models"
	"WildVoice/pkg/logger"
)

// ActivityLog 请求结束后异步记录用户访问。
// 只记录已登录用户，写库失败不影响请求。
func ActivityLog(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		user := models.CurrentUser(c)
		if user == nil {
			return
		}

		ua := user_agent.New(c.GetHeader("User-Agent"))
		browser, version := ua.Browser()
		entry := &models.ActivityLog{
			UserID:    user.ID,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Status:    c.Writer.Status(),
			IPAddress: c.ClientIP(),
			Browser:   browser + " " + version,
			Platform:  ua.OS(),
			LatencyMs: time.Since(start).Milliseconds(),
		}
		go func() {
			if err := models.CreateActivityLog(db, entry); err != nil {
				logger.Warn("record activity failed", zap.Error(err))
			}
		}()
	}
}
