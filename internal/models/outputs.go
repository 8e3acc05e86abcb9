package models

import (
	"time"

	"gorm.io/gorm"

	"WildVoice/pkg/errors"
)

const (
	OutputTypeTTS = "TTS"
	OutputTypeSTT = "STT"
)

type Output struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"index"`
	Type      string    `json:"type" gorm:"size:8"`            // TTS / STT
	VoiceID   *uint     `json:"voiceId,omitempty"`             // 仅 TTS 有值
	InputText string    `json:"inputText,omitempty" gorm:"type:text"` // TTS 输入或 STT 转写结果
	AudioURL  string    `json:"audioUrl,omitempty" gorm:"size:1024"`
	Duration  int       `json:"duration"` // 秒，服务商未返回时为 0
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// CreateOutput 新增输出记录。voiceId 只允许出现在 TTS 记录上。
func CreateOutput(db *gorm.DB, output *Output) error {
	if output.Type != OutputTypeTTS && output.VoiceID != nil {
		return errors.New("voiceId is only valid for TTS outputs")
	}
	return db.Create(output).Error
}

// ListOutputsByUser 返回用户最近的输出记录，可按类型过滤
func ListOutputsByUser(db *gorm.DB, userID uint, outputType string, limit int) ([]Output, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}
	q := db.Where("user_id = ?", userID)
	if outputType != "" {
		q = q.Where("type = ?", outputType)
	}
	var outputs []Output
	err := q.Order("created_at DESC").Limit(limit).Find(&outputs).Error
	return outputs, err
}
