package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"WildVoice/internal/models"
	"WildVoice/pkg/response"
)

type GenerateSpeechForm struct {
	Text    string `json:"text" binding:"required"`
	VoiceID uint   `json:"voiceId" binding:"required"`
}

// 文本转语音
func (h *Handlers) handleGenerateSpeech(c *gin.Context) {
	var form GenerateSpeechForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.FailWithStatus(c, http.StatusBadRequest, 1, "text and voiceId are required")
		return
	}

	user := models.CurrentUser(c)
	output, voice, err := h.svc.GenerateSpeech(c.Request.Context(), user, form.Text, form.VoiceID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Created(c, "speech generated", gin.H{
		"output": output,
		"voice":  voice,
	})
}
