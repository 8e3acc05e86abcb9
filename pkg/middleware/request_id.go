package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求链路标识头
const RequestIDHeader = "X-Request-ID"

// RequestIDField gin 上下文中存放请求 ID 的键
const RequestIDField = "request_id"

// RequestID 透传或生成请求 ID，写回响应头
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDField, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
