package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"WildVoice/internal/models"
	"WildVoice/internal/service"
	"WildVoice/pkg/audio"
	"WildVoice/pkg/cache"
	"WildVoice/pkg/config"
	"WildVoice/pkg/middleware"
	"WildVoice/pkg/providers/fal"
	"WildVoice/pkg/providers/whisper"
	stores "WildVoice/pkg/storage"
	"WildVoice/pkg/util"
)

type stubCloner struct{}

func (stubCloner) CloneVoice(context.Context, string) (string, error) { return "cv_test", nil }

type stubTTS struct{}

func (stubTTS) Synthesize(context.Context, fal.SpeechRequest) ([]byte, error) {
	return []byte("mp3"), nil
}

type stubSTT struct{}

func (stubSTT) Transcribe(context.Context, []byte, string) (whisper.Transcription, error) {
	return whisper.Transcription{Text: "hello", DurationSeconds: 2}, nil
}

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	store  *stores.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.GlobalConfig = &config.Config{APIPrefix: "/api", AuthPrefix: "/auth", SessionSecret: "test-secret"}

	db, err := util.OpenDatabase("", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	store := stores.NewMemoryStore("http://store.local")
	appCache, err := cache.New(cache.Config{})
	require.NoError(t, err)

	svc := service.New(db, store, audio.NewNormalizer(nil), stubCloner{}, stubTTS{}, stubSTT{}, service.Config{})
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{Rate: "1000-S"}, nil)

	engine := gin.New()
	engine.Use(middleware.Sessions("wildvoice", "test-secret"))
	NewHandlers(db, svc, store, appCache, limiter).Register(engine)

	return &testServer{engine: engine, db: db, store: store}
}

func (s *testServer) do(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, email string) []*http.Cookie {
	t.Helper()
	body, _ := json.Marshal(gin.H{"email": email, "password": "secret123", "displayName": "Tester"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return w.Result().Cookies()
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	cookies := s.register(t, "a@test.com")

	// 已登录可以拿到用户信息
	req := httptest.NewRequest(http.MethodGet, "/api/auth/info", nil)
	w := s.do(req, cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@test.com")

	// 未登录 401
	req = httptest.NewRequest(http.MethodGet, "/api/auth/info", nil)
	w = s.do(req, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 重复注册 409
	body, _ := json.Marshal(gin.H{"email": "a@test.com", "password": "secret123"})
	req = httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = s.do(req, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@test.com")

	body, _ := json.Marshal(gin.H{"email": "a@test.com", "password": "wrong-password"})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReadingPrompt(t *testing.T) {
	s := newTestServer(t)
	cookies := s.register(t, "a@test.com")

	req := httptest.NewRequest(http.MethodGet, "/api/voices/reading-prompt", nil)
	w := s.do(req, cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "phoneNumber")
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, fileData []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, fileName))
		switch {
		case strings.HasSuffix(fileName, ".mp3"):
			header.Set("Content-Type", "audio/mpeg")
		case strings.HasSuffix(fileName, ".webm"):
			header.Set("Content-Type", "audio/webm")
		default:
			header.Set("Content-Type", "application/octet-stream")
		}
		fw, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = fw.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestCloneVoiceEndpoint(t *testing.T) {
	s := newTestServer(t)
	cookies := s.register(t, "a@test.com")

	mp3 := append([]byte{0xFF, 0xFB, 0x90}, []byte("sample-data")...)
	buf, contentType := multipartBody(t, map[string]string{"name": "My Voice"}, "audio", "sample.mp3", mp3)
	req := httptest.NewRequest(http.MethodPost, "/api/voices/clone", buf)
	req.Header.Set("Content-Type", contentType)
	w := s.do(req, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "cv_test")

	// 声音出现在列表里
	req = httptest.NewRequest(http.MethodGet, "/api/voices", nil)
	w = s.do(req, cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "My Voice")
}

func TestCloneVoiceMissingAudio(t *testing.T) {
	s := newTestServer(t)
	cookies := s.register(t, "a@test.com")

	buf, contentType := multipartBody(t, map[string]string{"name": "No Audio"}, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/api/voices/clone", buf)
	req.Header.Set("Content-Type", contentType)
	w := s.do(req, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateSpeechEndpoint(t *testing.T) {
	s := newTestServer(t)
	cookies := s.register(t, "a@test.com")

	voice := &models.Voice{Name: "Public", IsPublic: true, FalVoiceID: "Wise_Woman"}
	require.NoError(t, models.CreateVoice(s.db, voice))

	body, _ := json.Marshal(gin.H{"text": "hello", "voiceId": voice.ID})
	req := httptest.NewRequest(http.MethodPost, "/api/tts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// 记录出现在最近输出里
	req = httptest.NewRequest(http.MethodGet, "/api/outputs?type=TTS", nil)
	w = s.do(req, cookies)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tts-outputs/")
}

func TestGenerateSpeechUnknownVoice(t *testing.T) {
	s := newTestServer(t)
	cookies := s.register(t, "a@test.com")

	body, _ := json.Marshal(gin.H{"text": "hello", "voiceId": 12345})
	req := httptest.NewRequest(http.MethodPost, "/api/tts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req, cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTranscribeEndpoint(t *testing.T) {
	s := newTestServer(t)
	cookies := s.register(t, "a@test.com")

	webm := []byte{0x1A, 0x45, 0xDF, 0xA3, 1, 2, 3}
	buf, contentType := multipartBody(t, nil, "audio", "note.webm", webm)
	req := httptest.NewRequest(http.MethodPost, "/api/stt", buf)
	req.Header.Set("Content-Type", contentType)
	w := s.do(req, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "hello")
}

func TestAudioProxy(t *testing.T) {
	s := newTestServer(t)

	_, err := s.store.Put(context.Background(), "tts-outputs/x.mp3",
		bytes.NewReader([]byte("mp3-data")), 8, stores.PutOptions{ContentType: "audio/mpeg"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/audio/tts-outputs/x.mp3", nil)
	w := s.do(req, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "mp3-data", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/audio/tts-outputs/missing.mp3", nil)
	w = s.do(req, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
	w := s.do(req, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
