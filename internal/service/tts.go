package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"WildVoice/internal/models"
	"WildVoice/pkg/errors"
	"WildVoice/pkg/logger"
	"WildVoice/pkg/metrics"
	"WildVoice/pkg/providers/fal"
	stores "WildVoice/pkg/storage"
)

// GenerateSpeech 用指定声音合成语音，上传结果并写入 Output 记录。
// 私有声音仅限归属用户使用。
// Duration 固定写 0：真实时长需要解码音频头，这里按约定留空。
func (s *Service) GenerateSpeech(ctx context.Context, user *models.User, text string, voiceID uint) (*models.Output, *models.Voice, error) {
	if user == nil {
		return nil, nil, errors.WithCode(errors.CodeUnauthorized, "Unauthorized")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil, errors.WithCode(errors.CodeValidation, "Text is required")
	}

	voice, err := models.GetVoiceByID(s.db, voiceID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, errors.WithCode(errors.CodeNotFound, "Voice not found")
		}
		return nil, nil, errors.Wrap(err, "failed to load voice")
	}
	if !voice.IsPublic && (voice.UserID == nil || *voice.UserID != user.ID) {
		return nil, nil, errors.WithCode(errors.CodeForbidden, "You don't have access to this voice")
	}

	falVoiceID := voice.FalVoiceID
	if falVoiceID == "" {
		falVoiceID = defaultVoiceID
	}

	start := time.Now()
	audioBytes, err := s.tts.Synthesize(ctx, fal.SpeechRequest{
		Text:    text,
		VoiceID: falVoiceID,
		Speed:   1.0,
		Vol:     1.0,
		Pitch:   0,
	})
	metrics.ObserveProviderCall("fal-speech", err == nil, time.Since(start))
	if err != nil {
		return nil, nil, err
	}

	key := stores.ObjectKey("tts-outputs", fmt.Sprintf("tts-%d.mp3", time.Now().UnixMilli()))
	url, err := s.store.Put(ctx, key, bytes.NewReader(audioBytes), int64(len(audioBytes)), stores.PutOptions{
		ContentType:  "audio/mpeg",
		CacheControl: "public, max-age=31536000",
	})
	metrics.ObserveUpload("tts-outputs", err == nil)
	if err != nil {
		return nil, nil, errors.WrapCode(errors.CodeUploadFailed, err, "Failed to upload audio to storage")
	}

	output := &models.Output{
		UserID:    user.ID,
		Type:      models.OutputTypeTTS,
		VoiceID:   &voice.ID,
		InputText: text,
		AudioURL:  url,
		Duration:  0,
	}
	if err := models.CreateOutput(s.db, output); err != nil {
		return nil, nil, errors.Wrap(err, "failed to save output")
	}
	s.indexOutput(ctx, output)

	logger.Info("speech generated",
		zap.Uint("userId", user.ID),
		zap.Uint("voiceId", voice.ID),
		zap.Uint("outputId", output.ID))
	return output, voice, nil
}
