package handlers

import (
	"fmt"
	"io"
	"path"

	"github.com/gin-gonic/gin"

	"WildVoice/internal/service"
	"WildVoice/pkg/audio"
)

// artifactFromRequest 从 multipart 请求取出音频：
// audio 文件字段优先，否则 recordingKey 引用一段已存档的流式录音。
// 两者都没有时返回 (nil, nil)，由协调器给出校验错误。
func (h *Handlers) artifactFromRequest(c *gin.Context) (*audio.Artifact, error) {
	if file, err := c.FormFile("audio"); err == nil {
		if file.Size > service.MaxUploadSize {
			return nil, fmt.Errorf("File size cannot exceed 20MB")
		}
		f, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file")
		}

		provenance := audio.ProvenanceUploaded
		if c.PostForm("source") == "recorded" {
			provenance = audio.ProvenanceRecorded
		}
		return &audio.Artifact{
			Name:       file.Filename,
			MIME:       file.Header.Get("Content-Type"),
			Data:       data,
			Provenance: provenance,
		}, nil
	}

	if key := c.PostForm("recordingKey"); key != "" {
		rc, _, contentType, err := h.store.Read(c.Request.Context(), key)
		if err != nil {
			return nil, fmt.Errorf("recording not found")
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read recording")
		}
		if contentType == "" {
			contentType = "audio/webm"
		}
		return &audio.Artifact{
			Name:       path.Base(key),
			MIME:       contentType,
			Data:       data,
			Provenance: audio.ProvenanceRecorded,
		}, nil
	}

	return nil, nil
}
