package service

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"WildVoice/internal/models"
	"WildVoice/pkg/audio"
	"WildVoice/pkg/errors"
	"WildVoice/pkg/logger"
	"WildVoice/pkg/metrics"
	"WildVoice/pkg/providers/whisper"
	stores "WildVoice/pkg/storage"
)

type transcribeResult struct {
	tr  whisper.Transcription
	err error
}

// Transcribe 接收一段音频，存档原始字节后调用转写服务。
// 转写调用与本地定时器竞速，超时返回 TranscriptionTimeout；
// 音频按原样提交，不做 MP3 归一化。
func (s *Service) Transcribe(ctx context.Context, user *models.User, art *audio.Artifact) (*models.Output, error) {
	if user == nil {
		return nil, errors.WithCode(errors.CodeUnauthorized, "Unauthorized")
	}
	if art == nil || art.Size() == 0 {
		return nil, errors.WithCode(errors.CodeValidation, "Please upload an audio file or record voice")
	}
	if !mimeAllowed(sttMIMETypes, art.MIME) {
		return nil, errors.WithCode(errors.CodeValidation, "Invalid audio format")
	}
	if art.Size() > MaxUploadSize {
		return nil, errors.WithCode(errors.CodeValidation, "File size cannot exceed 20MB")
	}

	key := stores.ObjectKey("stt-inputs", art.Name)
	url, err := s.store.Put(ctx, key, bytes.NewReader(art.Data), art.Size(), stores.PutOptions{
		ContentType: art.MIME,
		Metadata: map[string]string{
			"original-name": art.Name,
			"size":          fmt.Sprintf("%d", art.Size()),
		},
	})
	metrics.ObserveUpload("stt-inputs", err == nil)
	if err != nil {
		return nil, errors.WrapCode(errors.CodeUploadFailed, err, "Failed to upload audio to storage")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.TranscribeTimeout)
	defer cancel()

	resultCh := make(chan transcribeResult, 1)
	start := time.Now()
	go func() {
		tr, err := s.stt.Transcribe(callCtx, art.Data, art.Name)
		resultCh <- transcribeResult{tr: tr, err: err}
	}()

	var tr whisper.Transcription
	select {
	case res := <-resultCh:
		metrics.ObserveProviderCall("whisper", res.err == nil, time.Since(start))
		if res.err != nil {
			// worker 可能先于 Done 分支观察到 callCtx 过期，
			// 该调度下超时从这里返回
			if stderrors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
				metrics.IncTranscriptionTimeout()
				return nil, errors.WithCode(errors.CodeTranscriptionTimeout,
					fmt.Sprintf("Transcription timeout after %ds", int(s.cfg.TranscribeTimeout.Seconds())))
			}
			return nil, res.err
		}
		tr = res.tr
	case <-callCtx.Done():
		metrics.ObserveProviderCall("whisper", false, time.Since(start))
		if ctx.Err() != nil {
			// 调用方取消，不算超时
			return nil, ctx.Err()
		}
		metrics.IncTranscriptionTimeout()
		return nil, errors.WithCode(errors.CodeTranscriptionTimeout,
			fmt.Sprintf("Transcription timeout after %ds", int(s.cfg.TranscribeTimeout.Seconds())))
	}

	output := &models.Output{
		UserID:    user.ID,
		Type:      models.OutputTypeSTT,
		InputText: tr.Text,
		AudioURL:  url,
		Duration:  int(tr.DurationSeconds),
	}
	if err := models.CreateOutput(s.db, output); err != nil {
		return nil, errors.Wrap(err, "failed to save output")
	}
	s.indexOutput(ctx, output)

	logger.Info("audio transcribed",
		zap.Uint("userId", user.ID),
		zap.Uint("outputId", output.ID),
		zap.Int("duration", output.Duration))
	return output, nil
}
