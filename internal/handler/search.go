package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"WildVoice/internal/models"
	"WildVoice/pkg/response"
)

// 全文检索声音库和历史输出，?q= 关键词，?limit= 条数
func (h *Handlers) handleSearch(c *gin.Context) {
	user := models.CurrentUser(c)
	limit := cast.ToInt(c.DefaultQuery("limit", "10"))

	result, err := h.svc.Search(c.Request.Context(), user, c.Query("q"), limit)
	if err != nil {
		failWithError(c, err)
		return
	}
	response.Success(c, "search results", result)
}
