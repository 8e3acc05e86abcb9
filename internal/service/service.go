// Package service implements the submission coordinators behind voice
// cloning, speech synthesis and transcription. Each operation runs
// validate -> normalize -> upload -> provider call -> persist, strictly in
// that order; a row is written only after upload and provider call both
// succeed.
package service

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"WildVoice/pkg/audio"
	"WildVoice/pkg/providers/fal"
	"WildVoice/pkg/providers/whisper"
	"WildVoice/pkg/search"
	stores "WildVoice/pkg/storage"
)

// MaxUploadSize 上传文件大小上限
const MaxUploadSize = 20 << 20 // 20 MiB

// DefaultTranscribeTimeout 转写调用的超时竞速时长
const DefaultTranscribeTimeout = 30 * time.Second

// defaultVoiceID 数据库里没有服务商声音 ID 时的兜底公共音色
const defaultVoiceID = "Wise_Woman"

// 各入口允许的媒体类型
var (
	cloneMIMETypes = map[string]bool{
		"audio/mp3":  true,
		"audio/mpeg": true,
		"audio/wav":  true,
		"audio/ogg":  true,
		"audio/m4a":  true,
		"audio/aac":  true,
	}
	sttMIMETypes = map[string]bool{
		"audio/mp3":  true,
		"audio/mpeg": true,
		"audio/wav":  true,
		"audio/ogg":  true,
		"audio/m4a":  true,
		"audio/webm": true,
	}
)

// VoiceCloner turns an uploaded sample into a provider voice id.
type VoiceCloner interface {
	CloneVoice(ctx context.Context, audioURL string) (string, error)
}

// SpeechSynthesizer generates raw audio for a text and voice setting.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req fal.SpeechRequest) ([]byte, error)
}

// Transcriber converts audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, filename string) (whisper.Transcription, error)
}

// Config 协调器行为配置
type Config struct {
	TranscribeTimeout time.Duration
}

type Service struct {
	db         *gorm.DB
	store      stores.Store
	normalizer *audio.Normalizer
	cloner     VoiceCloner
	tts        SpeechSynthesizer
	stt        Transcriber
	search     *search.Engine // 可选，nil 时跳过索引
	cfg        Config
}

func New(db *gorm.DB, store stores.Store, normalizer *audio.Normalizer,
	cloner VoiceCloner, tts SpeechSynthesizer, stt Transcriber, cfg Config) *Service {
	if cfg.TranscribeTimeout <= 0 {
		cfg.TranscribeTimeout = DefaultTranscribeTimeout
	}
	return &Service{
		db:         db,
		store:      store,
		normalizer: normalizer,
		cloner:     cloner,
		tts:        tts,
		stt:        stt,
		cfg:        cfg,
	}
}

// WithSearch 启用全文索引
func (s *Service) WithSearch(engine *search.Engine) *Service {
	s.search = engine
	return s
}

func mimeAllowed(allowed map[string]bool, mime string) bool {
	return allowed[strings.ToLower(mime)]
}
