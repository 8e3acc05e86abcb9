package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"WildVoice/internal/models"
	"WildVoice/internal/service"
	"WildVoice/pkg/audio"
	"WildVoice/pkg/logger"
	"WildVoice/pkg/response"
)

const voiceListCacheTTL = time.Minute

func voiceListCacheKey(userID uint) string {
	return fmt.Sprintf("voices:user:%d", userID)
}

// 声音库：公共声音加上自己克隆的
func (h *Handlers) handleListVoices(c *gin.Context) {
	user := models.CurrentUser(c)

	key := voiceListCacheKey(user.ID)
	if cached, ok := h.cache.Get(c, key); ok {
		if voices, ok := cached.([]models.Voice); ok {
			response.Success(c, "voice list", voices)
			return
		}
	}

	voices, err := models.ListVoicesForUser(h.db, user.ID)
	if err != nil {
		logger.Error("list voices failed", zap.Error(err))
		response.FailWithStatus(c, http.StatusInternalServerError, 1, "failed to list voices")
		return
	}
	_ = h.cache.Set(c, key, voices, voiceListCacheTTL)
	response.Success(c, "voice list", voices)
}

// 录音引导文本：随机数字、日期和电话号码
func (h *Handlers) handleReadingPrompt(c *gin.Context) {
	response.Success(c, "reading prompt", audio.NewReadingPrompt())
}

// 克隆声音：multipart 表单，audio 为样本文件或 recordingKey 引用流式录音
func (h *Handlers) handleCloneVoice(c *gin.Context) {
	user := models.CurrentUser(c)

	artifact, err := h.artifactFromRequest(c)
	if err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, 1, err.Error())
		return
	}

	voice, err := h.svc.CloneVoice(c.Request.Context(), user, service.CloneInput{
		Name:     c.PostForm("name"),
		Category: c.PostForm("category"),
		Artifact: artifact,
	})
	if err != nil {
		failWithError(c, err)
		return
	}

	// 新声音出现后列表缓存失效
	_ = h.cache.Delete(c, voiceListCacheKey(user.ID))
	response.Created(c, "voice cloned", voice)
}
