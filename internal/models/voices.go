package models

import (
	"time"

	"gorm.io/gorm"

	"WildVoice/pkg/errors"
)

type Voice struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Name           string    `json:"name" gorm:"size:100"` // 声音名称
	Category       string    `json:"category,omitempty" gorm:"size:64"`
	Rating         int       `json:"rating"` // 0-5
	IsPublic       bool      `json:"isPublic"`
	UserID         *uint     `json:"userId,omitempty" gorm:"index"` // 公共声音可为空
	FalVoiceID     string    `json:"falVoiceId" gorm:"size:128"`    // 服务商返回的声音 ID
	SampleAudioURL string    `json:"sampleAudioUrl" gorm:"size:1024"`
	CreatedAt      time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// CreateVoice 新增声音记录。私有声音必须有归属用户。
func CreateVoice(db *gorm.DB, voice *Voice) error {
	if !voice.IsPublic && voice.UserID == nil {
		return errors.New("private voice requires an owner")
	}
	return db.Create(voice).Error
}

// GetVoiceByID 按主键查找声音
func GetVoiceByID(db *gorm.DB, id uint) (*Voice, error) {
	var voice Voice
	if err := db.First(&voice, id).Error; err != nil {
		return nil, err
	}
	return &voice, nil
}

// ListVoicesForUser 返回公共声音加上该用户自己的私有声音
func ListVoicesForUser(db *gorm.DB, userID uint) ([]Voice, error) {
	var voices []Voice
	err := db.Where("is_public = ?", true).
		Or("user_id = ?", userID).
		Order("created_at DESC").
		Find(&voices).Error
	return voices, err
}
