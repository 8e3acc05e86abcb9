package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"WildVoice/internal/service"
	"WildVoice/pkg/cache"
	"WildVoice/pkg/config"
	"WildVoice/pkg/errors"
	"WildVoice/pkg/middleware"
	"WildVoice/pkg/response"
	stores "WildVoice/pkg/storage"
)

type Handlers struct {
	db      *gorm.DB
	svc     *service.Service
	store   stores.Store
	cache   cache.Cache
	limiter *middleware.RateLimiter
}

func NewHandlers(db *gorm.DB, svc *service.Service, store stores.Store, c cache.Cache, limiter *middleware.RateLimiter) *Handlers {
	return &Handlers{
		db:      db,
		svc:     svc,
		store:   store,
		cache:   c,
		limiter: limiter,
	}
}

func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(config.GlobalConfig.APIPrefix)

	// Register Global Singleton DB
	r.Use(middleware.InjectDB(h.db))
	r.Use(middleware.CurrentUserFromSession(h.db))
	r.Use(middleware.ActivityLog(h.db))

	// Register System Module Routes
	h.registerSystemRoutes(r)

	// Register Business Module Routes
	h.registerAuthRoutes(r)
	h.registerVoiceRoutes(r)
	h.registerSpeechRoutes(r)
	h.registerAudioRoutes(r)
}

// User Module
func (h *Handlers) registerAuthRoutes(r *gin.RouterGroup) {
	auth := r.Group(config.GlobalConfig.AuthPrefix)
	{
		// register
		auth.POST("/register", h.handleUserSignup)

		// login
		auth.POST("/login", h.handleUserSignin)

		// logout
		auth.GET("/logout", middleware.AuthRequired, h.handleUserLogout)

		auth.GET("/info", middleware.AuthRequired, h.handleUserInfo)
	}
}

// Voice Module
func (h *Handlers) registerVoiceRoutes(r *gin.RouterGroup) {
	voices := r.Group("voices")
	voices.Use(middleware.AuthRequired)
	{
		voices.GET("", h.handleListVoices)

		voices.GET("/reading-prompt", h.handleReadingPrompt)

		voices.POST("/clone", middleware.Idempotency(h.cache, middleware.IdempotencyConfig{}), h.handleCloneVoice)
	}

	r.GET("/record", middleware.AuthRequired, h.handleRecordSocket)
}

// TTS / STT Module
func (h *Handlers) registerSpeechRoutes(r *gin.RouterGroup) {
	r.POST("/tts", middleware.AuthRequired, h.handleGenerateSpeech)

	r.POST("/stt", middleware.AuthRequired, h.handleTranscribe)

	r.GET("/outputs", middleware.AuthRequired, h.handleListOutputs)

	r.GET("/search", middleware.AuthRequired, h.handleSearch)
}

// Audio proxy
func (h *Handlers) registerAudioRoutes(r *gin.RouterGroup) {
	r.GET("/audio/*key", h.handleGetAudio)
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		system.POST("/rate-limiter/config", h.UpdateRateLimiterConfig)

		system.GET("/health", h.HealthCheck)
	}
}

// failWithError 把业务错误码映射为 HTTP 状态
func failWithError(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.CodeUnauthorized:
		status = http.StatusUnauthorized
	case errors.CodeValidation:
		status = http.StatusBadRequest
	case errors.CodePermissionDenied, errors.CodeForbidden:
		status = http.StatusForbidden
	case errors.CodeConversionFailed:
		status = http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeUploadFailed, errors.CodeProvider:
		status = http.StatusBadGateway
	case errors.CodeTranscriptionTimeout:
		status = http.StatusGatewayTimeout
	}
	response.FailWithStatus(c, status, code, errors.GetMessage(err))
}
