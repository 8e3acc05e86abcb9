package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"WildVoice/internal/models"
	"WildVoice/pkg/audio"
	"WildVoice/pkg/logger"
	"WildVoice/pkg/metrics"
	stores "WildVoice/pkg/storage"
)

var recordUpgrader = websocket.Upgrader{
	ReadBufferSize:  32 << 10,
	WriteBufferSize: 4 << 10,
	// 会话 cookie 已经做了认证，跨域由部署层控制
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSource 把 websocket 二进制消息接入录音机
type wsSource struct {
	onChunk func([]byte)
}

func (s *wsSource) Open(onChunk func([]byte)) (audio.Session, error) {
	s.onChunk = onChunk
	return nopSession{}, nil
}

type nopSession struct{}

func (nopSession) Pause() error  { return nil }
func (nopSession) Resume() error { return nil }
func (nopSession) Close() error  { return nil }

type recordControl struct {
	Action string `json:"action"` // pause | resume | stop
}

type recordStatus struct {
	State    audio.State `json:"state"`
	Duration string      `json:"duration"`
}

type recordResult struct {
	Key      string `json:"key"`
	URL      string `json:"url"`
	Duration int    `json:"duration"`
	Size     int64  `json:"size"`
}

// 流式录音：二进制帧是音频块，文本帧是控制命令。
// stop 后服务端把拼好的 WebM 存档并返回对象 key，
// 之后克隆或转写接口可以用 recordingKey 引用它。
func (h *Handlers) handleRecordSocket(c *gin.Context) {
	user := models.CurrentUser(c)

	conn, err := recordUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	src := &wsSource{}
	rec := audio.NewRecorder(src)
	if err := rec.Start(); err != nil {
		_ = conn.WriteJSON(gin.H{"error": "failed to start recording"})
		return
	}
	// 连接异常断开时丢弃未完成的录音并释放设备
	defer rec.Stop()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			src.onChunk(data)

		case websocket.TextMessage:
			var ctrl recordControl
			if err := json.Unmarshal(data, &ctrl); err != nil {
				continue
			}
			switch ctrl.Action {
			case "pause":
				rec.Pause()
			case "resume":
				rec.Resume()
			case "stop":
				h.finishRecording(c, conn, rec, user)
				return
			}
			_ = conn.WriteJSON(recordStatus{
				State:    rec.State(),
				Duration: audio.FormatDuration(rec.Duration()),
			})
		}
	}
}

func (h *Handlers) finishRecording(c *gin.Context, conn *websocket.Conn, rec *audio.Recorder, user *models.User) {
	duration := rec.Duration()
	art, err := rec.Stop()
	if err != nil || art == nil {
		_ = conn.WriteJSON(gin.H{"error": "failed to finalize recording"})
		return
	}

	key := stores.ObjectKey("recordings", art.Name)
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()
	url, err := h.store.Put(ctx, key, bytes.NewReader(art.Data), art.Size(), stores.PutOptions{
		ContentType: art.MIME,
	})
	metrics.ObserveUpload("recordings", err == nil)
	if err != nil {
		logger.Warn("archive recording failed", zap.Uint("userId", user.ID), zap.Error(err))
		_ = conn.WriteJSON(gin.H{"error": "failed to store recording"})
		return
	}

	_ = conn.WriteJSON(recordResult{
		Key:      key,
		URL:      url,
		Duration: duration,
		Size:     art.Size(),
	})
}
