package config

import (
	"log"
	"os"

	"WildVoice/pkg/logger"
	"WildVoice/pkg/notification"
	"WildVoice/pkg/util"
)

// config/config.go
type Config struct {
	Addr          string `env:"ADDR"`
	Mode          string `env:"MODE"`
	DBDriver      string `env:"DB_DRIVER"`
	DSN           string `env:"DSN"`
	APIPrefix     string `env:"API_PREFIX"`
	AuthPrefix    string `env:"AUTH_PREFIX"`
	SessionSecret string `env:"SESSION_SECRET"`
	SiteURL       string `env:"SITE_URL"` // 邮件里的站点链接
	Log           logger.LogConfig
	Mail          notification.MailConfig

	// 对象存储
	MinioEndpoint   string `env:"MINIO_ENDPOINT"`
	MinioAccessKey  string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey  string `env:"MINIO_SECRET_KEY"`
	MinioBucket     string `env:"MINIO_BUCKET"`
	MinioUseSSL     bool   `env:"MINIO_USE_SSL"`
	MinioPublicBase string `env:"MINIO_PUBLIC_BASE"` // 对外访问域名，可选

	// AI 服务商
	FalKey        string `env:"FAL_KEY"`
	FalBaseURL    string `env:"FAL_BASE_URL"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	// 音频转码
	FFmpegPath string `env:"FFMPEG_PATH"`

	// 全文索引
	SearchIndexPath string `env:"SEARCH_INDEX_PATH"` // 空值用内存索引

	// 缓存
	CacheType string `env:"CACHE_TYPE"` // local | gocache | redis
	RedisAddr string `env:"REDIS_ADDR"`

	// 限流
	RateLimit string `env:"RATE_LIMIT"` // e.g. "100-M"

	// 备份
	BackupEnabled  bool   `env:"BACKUP_ENABLED"`
	BackupPath     string `env:"BACKUP_PATH"`
	BackupSchedule string `env:"BACKUP_SCHEDULE"`
}

var GlobalConfig *Config

func Load() error {
	// 1. 根据环境加载 .env 文件
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development" // 默认使用开发环境
	}
	err := util.LoadEnv(env)
	if err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	// 2. 加载全局配置
	GlobalConfig = &Config{
		Addr:          util.GetEnvDefault("ADDR", ":8080"),
		Mode:          util.GetEnv("MODE"),
		DBDriver:      util.GetEnv("DB_DRIVER"),
		DSN:           util.GetEnv("DSN"),
		APIPrefix:     util.GetEnvDefault("API_PREFIX", "/api"),
		AuthPrefix:    util.GetEnvDefault("AUTH_PREFIX", "/auth"),
		SessionSecret: util.GetEnv("SESSION_SECRET"),
		SiteURL:       util.GetEnvDefault("SITE_URL", "http://localhost:8080"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Mail: notification.MailConfig{
			Host:     util.GetEnv("MAIL_HOST"),
			Port:     int(util.GetIntEnv("MAIL_PORT")),
			Username: util.GetEnv("MAIL_USERNAME"),
			Password: util.GetEnv("MAIL_PASSWORD"),
			From:     util.GetEnv("MAIL_FROM"),
		},
		MinioEndpoint:   util.GetEnv("MINIO_ENDPOINT"),
		MinioAccessKey:  util.GetEnv("MINIO_ACCESS_KEY"),
		MinioSecretKey:  util.GetEnv("MINIO_SECRET_KEY"),
		MinioBucket:     util.GetEnv("MINIO_BUCKET"),
		MinioUseSSL:     util.GetBoolEnv("MINIO_USE_SSL"),
		MinioPublicBase: util.GetEnv("MINIO_PUBLIC_BASE"),
		FalKey:          util.GetEnv("FAL_KEY"),
		FalBaseURL:      util.GetEnv("FAL_BASE_URL"),
		OpenAIKey:       util.GetEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:   util.GetEnv("OPENAI_BASE_URL"),
		FFmpegPath:      util.GetEnvDefault("FFMPEG_PATH", "ffmpeg"),
		SearchIndexPath: util.GetEnv("SEARCH_INDEX_PATH"),
		CacheType:       util.GetEnvDefault("CACHE_TYPE", "local"),
		RedisAddr:       util.GetEnv("REDIS_ADDR"),
		RateLimit:       util.GetEnvDefault("RATE_LIMIT", "100-M"),
		BackupEnabled:   util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:      util.GetEnvDefault("BACKUP_PATH", "backups"),
		BackupSchedule:  util.GetEnvDefault("BACKUP_SCHEDULE", "0 3 * * *"),
	}
	return nil
}
