package models

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"WildVoice/pkg/util"
)

// 信号名，监听器在 internal/listeners 注册
const SigUserCreate = "user.create"

// UserField gin 上下文中存放当前用户的键
const UserField = "user"

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"size:256;uniqueIndex"`
	DisplayName  string    `json:"displayName" gorm:"size:128"`
	PasswordHash string    `json:"-" gorm:"size:128"`
	Salt         string    `json:"-" gorm:"size:64"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func hashPassword(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + ":" + password))
	return hex.EncodeToString(sum[:])
}

// SetPassword 重新生成盐并写入密码哈希
func (u *User) SetPassword(password string) {
	u.Salt = util.RandomString(16)
	u.PasswordHash = hashPassword(u.Salt, password)
}

// CheckPassword 校验明文密码
func (u *User) CheckPassword(password string) bool {
	expect := hashPassword(u.Salt, password)
	return subtle.ConstantTimeCompare([]byte(expect), []byte(u.PasswordHash)) == 1
}

// CreateUser 创建用户并广播 user.create 信号
func CreateUser(db *gorm.DB, email, displayName, password string) (*User, error) {
	user := &User{Email: email, DisplayName: displayName}
	user.SetPassword(password)
	if err := db.Create(user).Error; err != nil {
		return nil, err
	}
	util.Sig().Emit(SigUserCreate, user)
	return user, nil
}

// GetUserByEmail 按邮箱查找用户
func GetUserByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID 按主键查找用户
func GetUserByID(db *gorm.DB, id uint) (*User, error) {
	var user User
	if err := db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CurrentUser 获取认证中间件写入的当前用户，未登录返回 nil
func CurrentUser(c *gin.Context) *User {
	v, ok := c.Get(UserField)
	if !ok {
		return nil
	}
	user, _ := v.(*User)
	return user
}
