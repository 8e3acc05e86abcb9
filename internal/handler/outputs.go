package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"WildVoice/internal/models"
	"WildVoice/pkg/response"
)

// 最近的生成记录，?type=TTS|STT 过滤，?limit= 控制条数
func (h *Handlers) handleListOutputs(c *gin.Context) {
	user := models.CurrentUser(c)

	outputType := c.Query("type")
	if outputType != "" && outputType != models.OutputTypeTTS && outputType != models.OutputTypeSTT {
		response.FailWithStatus(c, http.StatusBadRequest, 1, "type must be TTS or STT")
		return
	}
	limit := cast.ToInt(c.DefaultQuery("limit", "10"))

	outputs, err := models.ListOutputsByUser(h.db, user.ID, outputType, limit)
	if err != nil {
		response.FailWithStatus(c, http.StatusInternalServerError, 1, "failed to list outputs")
		return
	}
	response.Success(c, "recent outputs", outputs)
}
