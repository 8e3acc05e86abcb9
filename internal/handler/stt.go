package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"WildVoice/internal/models"
	"WildVoice/pkg/response"
)

// 语音转文字：multipart 表单，audio 为待转写文件或 recordingKey 引用流式录音
func (h *Handlers) handleTranscribe(c *gin.Context) {
	user := models.CurrentUser(c)

	artifact, err := h.artifactFromRequest(c)
	if err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, 1, err.Error())
		return
	}

	output, err := h.svc.Transcribe(c.Request.Context(), user, artifact)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Created(c, "audio transcribed", output)
}
