package service

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"WildVoice/internal/models"
	"WildVoice/pkg/audio"
	"WildVoice/pkg/errors"
	"WildVoice/pkg/logger"
	"WildVoice/pkg/metrics"
	stores "WildVoice/pkg/storage"
)

// CloneInput 声音克隆提交参数
type CloneInput struct {
	Name     string
	Category string
	Artifact *audio.Artifact
}

// CloneVoice 校验、归一化、上传样本并调用克隆服务，全部成功后写入
// Voice 记录。前面任何一步失败都不会产生数据库行。
// 克隆端点采用严格转换策略：下游服务只接受 MP3/FLAC，转换失败即拒绝。
func (s *Service) CloneVoice(ctx context.Context, user *models.User, in CloneInput) (*models.Voice, error) {
	if user == nil {
		return nil, errors.WithCode(errors.CodeUnauthorized, "Unauthorized")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.WithCode(errors.CodeValidation, "Please enter voice name")
	}
	if in.Artifact == nil {
		return nil, errors.WithCode(errors.CodeValidation, "Please upload an audio file or record voice")
	}
	if in.Artifact.Provenance == audio.ProvenanceUploaded && !mimeAllowed(cloneMIMETypes, in.Artifact.MIME) {
		return nil, errors.WithCode(errors.CodeValidation,
			"Please upload a valid audio file (MP3, WAV, OGG, M4A)")
	}
	if in.Artifact.Size() > MaxUploadSize {
		return nil, errors.WithCode(errors.CodeValidation, "File size cannot exceed 20MB")
	}

	processed, err := s.normalizer.Normalize(ctx, in.Artifact, audio.PolicyStrict)
	if err != nil {
		metrics.ObserveConversion(false)
		return nil, err
	}
	metrics.ObserveConversion(true)

	key := stores.ObjectKey("voice-samples", processed.Name)
	url, err := s.store.Put(ctx, key, bytes.NewReader(processed.Data), processed.Size(), stores.PutOptions{
		ContentType:  processed.MIME,
		CacheControl: "public, max-age=31536000",
		Metadata: map[string]string{
			"original-name": in.Artifact.Name,
			"size":          strconv.FormatInt(processed.Size(), 10),
		},
	})
	metrics.ObserveUpload("voice-samples", err == nil)
	if err != nil {
		return nil, errors.WrapCode(errors.CodeUploadFailed, err, "Failed to upload audio to storage")
	}

	start := time.Now()
	voiceID, err := s.cloner.CloneVoice(ctx, url)
	metrics.ObserveProviderCall("fal-voice-clone", err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	voice := &models.Voice{
		Name:           strings.TrimSpace(in.Name),
		Category:       in.Category,
		Rating:         0,
		IsPublic:       false,
		UserID:         &user.ID,
		FalVoiceID:     voiceID,
		SampleAudioURL: url,
	}
	if err := models.CreateVoice(s.db, voice); err != nil {
		return nil, errors.Wrap(err, "failed to save voice")
	}
	s.indexVoice(ctx, voice)

	logger.Info("voice cloned",
		zap.Uint("userId", user.ID),
		zap.Uint("voiceId", voice.ID),
		zap.String("falVoiceId", voiceID))
	return voice, nil
}
