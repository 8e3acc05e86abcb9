package models

import (
	"time"

	"gorm.io/gorm"
)

// ActivityLog 记录用户接口访问
type ActivityLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"index"`
	Method    string    `json:"method" gorm:"size:8"`
	Path      string    `json:"path" gorm:"size:512"`
	Status    int       `json:"status"`
	IPAddress string    `json:"ipAddress" gorm:"size:64"`
	Browser   string    `json:"browser" gorm:"size:128"`
	Platform  string    `json:"platform" gorm:"size:64"`
	LatencyMs int64     `json:"latencyMs"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// CreateActivityLog 写入访问记录
func CreateActivityLog(db *gorm.DB, entry *ActivityLog) error {
	return db.Create(entry).Error
}
