package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handlers "WildVoice/internal/handler"
	"WildVoice/internal/listeners"
	"WildVoice/internal/models"
	"WildVoice/internal/service"
	"WildVoice/pkg/audio"
	"WildVoice/pkg/backup"
	"WildVoice/pkg/cache"
	"WildVoice/pkg/config"
	"WildVoice/pkg/logger"
	"WildVoice/pkg/metrics"
	"WildVoice/pkg/middleware"
	"WildVoice/pkg/providers/fal"
	"WildVoice/pkg/providers/whisper"
	"WildVoice/pkg/scheduler"
	"WildVoice/pkg/search"
	stores "WildVoice/pkg/storage"
	"WildVoice/pkg/util"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()

	db, err := util.OpenDatabase(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Error("open database failed", zap.Error(err))
		os.Exit(1)
	}
	if err := models.Migrate(db); err != nil {
		logger.Error("migrate failed", zap.Error(err))
		os.Exit(1)
	}

	listeners.InitUserListeners()

	store := buildStore(cfg)

	appCache, err := cache.New(cache.Config{
		Type:  cfg.CacheType,
		Redis: cache.RedisConfig{Addr: cfg.RedisAddr},
	})
	if err != nil {
		logger.Error("init cache failed", zap.Error(err))
		os.Exit(1)
	}
	defer appCache.Close()

	falClient := fal.NewClient(fal.Config{APIKey: cfg.FalKey, BaseURL: cfg.FalBaseURL})
	whisperClient := whisper.NewClient(whisper.Config{APIKey: cfg.OpenAIKey, BaseURL: cfg.OpenAIBaseURL})

	normalizer := buildNormalizer(cfg)

	svc := service.New(db, store, normalizer, falClient, falClient, whisperClient, service.Config{})

	searchEngine, err := search.Open(cfg.SearchIndexPath)
	if err != nil {
		logger.Warn("open search index failed, search disabled", zap.Error(err))
	} else {
		defer searchEngine.Close()
		svc = svc.WithSearch(searchEngine)
	}

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:       cfg.RateLimit,
		SkipPaths:  []string{"/metrics", cfg.APIPrefix + "/system/health"},
		AddHeaders: true,
	}, nil)

	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(metrics.GinMiddleware())
	engine.Use(middleware.Sessions("wildvoice", cfg.SessionSecret))
	engine.Use(limiter.Middleware())
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.NewHandlers(db, svc, store, appCache, limiter).Register(engine)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartSystemMonitor(ctx, 30*time.Second)

	cr := scheduler.NewCron(nil)
	if cfg.BackupEnabled {
		if err := backup.Schedule(cr); err != nil {
			logger.Warn("schedule backup failed", zap.Error(err))
		}
	}
	cr.Start()
	defer cr.Stop()

	srv := &http.Server{Addr: cfg.Addr, Handler: engine}
	go func() {
		logger.Info("server started", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
}

// buildStore 优先 MinIO，未配置时退回内存存储（仅适合本地开发）
func buildStore(cfg *config.Config) stores.Store {
	if cfg.MinioEndpoint == "" {
		logger.Warn("MINIO_ENDPOINT not set, using in-memory object store")
		return stores.NewMemoryStore(cfg.SiteURL + cfg.APIPrefix + "/audio")
	}
	store, err := stores.NewMinioStore(stores.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		BaseURL:   cfg.MinioPublicBase,
	})
	if err != nil {
		logger.Error("init minio failed", zap.Error(err))
		os.Exit(1)
	}
	return store
}

// buildNormalizer ffmpeg 不可用时转换器为空，宽松策略仍可通过
func buildNormalizer(cfg *config.Config) *audio.Normalizer {
	conv, err := audio.NewFFmpegConverter(cfg.FFmpegPath)
	if err != nil {
		logger.Warn("ffmpeg not found, mp3 conversion disabled", zap.Error(err))
		return audio.NewNormalizer(nil)
	}
	return audio.NewNormalizer(conv)
}
