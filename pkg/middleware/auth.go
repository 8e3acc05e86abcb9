package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"WildVoice/internal/models"
)

// DbField gin 上下文中存放数据库句柄的键
const DbField = "db"

// SessionUserKey session 里存放用户 ID 的键
const SessionUserKey = "uid"

// InjectDB 把数据库句柄写入请求上下文
func InjectDB(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DbField, db)
		c.Next()
	}
}

// Sessions 基于 cookie 的会话中间件
func Sessions(name, secret string) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 3600,
		HttpOnly: true,
	})
	return sessions.Sessions(name, store)
}

// CurrentUserFromSession 尝试从会话恢复当前用户并写入上下文。
// 未登录时不中断请求。
func CurrentUserFromSession(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		v := session.Get(SessionUserKey)
		if v != nil {
			if uid, ok := v.(uint); ok {
				if user, err := models.GetUserByID(db, uid); err == nil {
					c.Set(models.UserField, user)
				}
			}
		}
		c.Next()
	}
}

// AuthRequired 要求已登录，否则返回 401
func AuthRequired(c *gin.Context) {
	if models.CurrentUser(c) == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Next()
}

// Login 把用户写入会话
func Login(c *gin.Context, userID uint) error {
	session := sessions.Default(c)
	session.Set(SessionUserKey, userID)
	return session.Save()
}

// Logout 清空会话
func Logout(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}
