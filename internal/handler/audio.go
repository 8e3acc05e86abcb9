package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"WildVoice/pkg/response"
	stores "WildVoice/pkg/storage"
)

// 音频代理：按对象 key 流式返回存储里的音频
func (h *Handlers) handleGetAudio(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") {
		response.FailWithStatus(c, http.StatusBadRequest, 1, "invalid audio key")
		return
	}

	rc, size, contentType, err := h.store.Read(c.Request.Context(), key)
	if err != nil {
		if err == stores.ErrNotFound {
			response.FailWithStatus(c, http.StatusNotFound, 1, "audio not found")
			return
		}
		response.FailWithStatus(c, http.StatusBadGateway, 1, "failed to read audio")
		return
	}
	defer rc.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	if size > 0 {
		c.Header("Content-Length", strconv.FormatInt(size, 10))
	}
	c.Header("Cache-Control", "public, max-age=31536000")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
