package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"WildVoice/internal/models"
	"WildVoice/pkg/audio"
	apperrors "WildVoice/pkg/errors"
	"WildVoice/pkg/providers/fal"
	"WildVoice/pkg/providers/whisper"
	stores "WildVoice/pkg/storage"
	"WildVoice/pkg/util"
)

// ---- fakes ----

type fakeConverter struct {
	out  []byte
	err  error
	used int
}

func (f *fakeConverter) ToMP3(_ context.Context, _ []byte) ([]byte, error) {
	f.used++
	return f.out, f.err
}

// flakyStore 包装 MemoryStore，可让 Put 按需失败
type flakyStore struct {
	*stores.MemoryStore
	failPut bool
	puts    int
}

func (s *flakyStore) Put(ctx context.Context, key string, r io.Reader, size int64, opts stores.PutOptions) (string, error) {
	s.puts++
	if s.failPut {
		return "", errors.New("connection refused")
	}
	return s.MemoryStore.Put(ctx, key, r, size, opts)
}

type fakeCloner struct {
	id    string
	err   error
	calls int
	seen  string
}

func (f *fakeCloner) CloneVoice(_ context.Context, audioURL string) (string, error) {
	f.calls++
	f.seen = audioURL
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

type fakeTTS struct {
	out  []byte
	err  error
	seen fal.SpeechRequest
}

func (f *fakeTTS) Synthesize(_ context.Context, req fal.SpeechRequest) ([]byte, error) {
	f.seen = req
	return f.out, f.err
}

type fakeSTT struct {
	tr    whisper.Transcription
	err   error
	delay time.Duration
}

func (f *fakeSTT) Transcribe(ctx context.Context, _ []byte, _ string) (whisper.Transcription, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return whisper.Transcription{}, ctx.Err()
		}
	}
	return f.tr, f.err
}

// ---- helpers ----

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := util.OpenDatabase("", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func testUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user, err := models.CreateUser(db, email, "Tester", "secret123")
	require.NoError(t, err)
	return user
}

type testEnv struct {
	svc    *Service
	db     *gorm.DB
	store  *flakyStore
	cloner *fakeCloner
	tts    *fakeTTS
	stt    *fakeSTT
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		db:     testDB(t),
		store:  &flakyStore{MemoryStore: stores.NewMemoryStore("http://store.local")},
		cloner: &fakeCloner{id: "cv_123"},
		tts:    &fakeTTS{out: []byte("mp3-bytes")},
		stt:    &fakeSTT{tr: whisper.Transcription{Text: "hello world", DurationSeconds: 3.2}},
	}
	norm := audio.NewNormalizer(&fakeConverter{out: append([]byte{0xFF, 0xFB, 0x90}, []byte("converted")...)})
	env.svc = New(env.db, env.store, norm, env.cloner, env.tts, env.stt, Config{})
	return env
}

func mp3Artifact(name string) *audio.Artifact {
	return &audio.Artifact{
		Name:       name,
		MIME:       "audio/mpeg",
		Data:       append([]byte{0xFF, 0xFB, 0x90}, []byte("sample")...),
		Provenance: audio.ProvenanceUploaded,
	}
}

func voiceCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Voice{}).Count(&n).Error)
	return n
}

func outputCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Output{}).Count(&n).Error)
	return n
}

// ---- CloneVoice ----

func TestCloneVoiceSuccess(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(t, env.db, "a@test.com")

	voice, err := env.svc.CloneVoice(context.Background(), user, CloneInput{
		Name:     "My Voice",
		Category: "personal",
		Artifact: mp3Artifact("sample.mp3"),
	})
	require.NoError(t, err)
	assert.Equal(t, "cv_123", voice.FalVoiceID)
	assert.False(t, voice.IsPublic)
	require.NotNil(t, voice.UserID)
	assert.Equal(t, user.ID, *voice.UserID)
	assert.Equal(t, env.store.PublicURL(env.store.Keys()[0]), voice.SampleAudioURL)
	assert.Equal(t, voice.SampleAudioURL, env.cloner.seen)
}

func TestCloneVoiceRequiresUser(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.CloneVoice(context.Background(), nil, CloneInput{Name: "x", Artifact: mp3Artifact("a.mp3")})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestCloneVoiceValidationBeforeIO(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(t, env.db, "a@test.com")

	cases := []struct {
		name string
		in   CloneInput
	}{
		{"empty name", CloneInput{Name: "  ", Artifact: mp3Artifact("a.mp3")}},
		{"missing artifact", CloneInput{Name: "v"}},
		{"bad mime", CloneInput{Name: "v", Artifact: &audio.Artifact{
			Name: "a.txt", MIME: "text/plain", Data: []byte("nope"), Provenance: audio.ProvenanceUploaded,
		}}},
		{"too large", CloneInput{Name: "v", Artifact: &audio.Artifact{
			Name: "a.mp3", MIME: "audio/mpeg", Data: make([]byte, MaxUploadSize+1), Provenance: audio.ProvenanceUploaded,
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.CloneVoice(context.Background(), user, tc.in)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "got %v", err)
		})
	}
	// 校验失败不得触达存储或服务商
	assert.Equal(t, 0, env.store.puts)
	assert.Equal(t, 0, env.cloner.calls)
	assert.EqualValues(t, 0, voiceCount(t, env.db))
}

func TestCloneVoiceRecordedArtifactSkipsMIMECheck(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(t, env.db, "a@test.com")

	// 录音产物是 webm，不在上传白名单里，但必须放行并被转换
	art := audio.NewRecordedArtifact([]byte{0x1A, 0x45, 0xDF, 0xA3, 1, 2, 3})
	voice, err := env.svc.CloneVoice(context.Background(), user, CloneInput{Name: "rec", Artifact: art})
	require.NoError(t, err)
	assert.Contains(t, voice.SampleAudioURL, "voice-samples/")
}

func TestCloneVoiceNoRowOnUploadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.failPut = true
	user := testUser(t, env.db, "a@test.com")

	_, err := env.svc.CloneVoice(context.Background(), user, CloneInput{Name: "v", Artifact: mp3Artifact("a.mp3")})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUploadFailed), "got %v", err)
	assert.Equal(t, 0, env.cloner.calls)
	assert.EqualValues(t, 0, voiceCount(t, env.db))
}

func TestCloneVoiceNoRowOnProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.cloner.err = apperrors.WithCode(apperrors.CodeProvider, "voice clone failed")
	user := testUser(t, env.db, "a@test.com")

	_, err := env.svc.CloneVoice(context.Background(), user, CloneInput{Name: "v", Artifact: mp3Artifact("a.mp3")})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProvider))
	assert.EqualValues(t, 0, voiceCount(t, env.db))
}

func TestCloneVoiceStrictConversionFailure(t *testing.T) {
	env := newTestEnv(t)
	norm := audio.NewNormalizer(&fakeConverter{err: errors.New("codec error")})
	env.svc = New(env.db, env.store, norm, env.cloner, env.tts, env.stt, Config{})
	user := testUser(t, env.db, "a@test.com")

	art := audio.NewRecordedArtifact([]byte{0x1A, 0x45, 0xDF, 0xA3, 1})
	_, err := env.svc.CloneVoice(context.Background(), user, CloneInput{Name: "v", Artifact: art})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConversionFailed), "got %v", err)
	assert.Equal(t, 0, env.store.puts)
	assert.EqualValues(t, 0, voiceCount(t, env.db))
}

// ---- GenerateSpeech ----

func publicVoice(t *testing.T, db *gorm.DB) *models.Voice {
	t.Helper()
	v := &models.Voice{Name: "Wise Woman", Category: "narration", IsPublic: true, FalVoiceID: "Wise_Woman"}
	require.NoError(t, models.CreateVoice(db, v))
	return v
}

func privateVoice(t *testing.T, db *gorm.DB, owner uint) *models.Voice {
	t.Helper()
	v := &models.Voice{Name: "Mine", IsPublic: false, UserID: &owner, FalVoiceID: "cv_mine"}
	require.NoError(t, models.CreateVoice(db, v))
	return v
}

func TestGenerateSpeechSuccess(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(t, env.db, "a@test.com")
	voice := publicVoice(t, env.db)

	output, got, err := env.svc.GenerateSpeech(context.Background(), user, "hello there", voice.ID)
	require.NoError(t, err)
	assert.Equal(t, voice.ID, got.ID)
	assert.Equal(t, models.OutputTypeTTS, output.Type)
	require.NotNil(t, output.VoiceID)
	assert.Equal(t, voice.ID, *output.VoiceID)
	assert.Equal(t, "hello there", output.InputText)
	assert.Contains(t, output.AudioURL, "tts-outputs/")

	assert.Equal(t, "Wise_Woman", env.tts.seen.VoiceID)
	assert.Equal(t, 1.0, env.tts.seen.Speed)
	assert.Equal(t, 1.0, env.tts.seen.Vol)
	assert.Equal(t, 0, env.tts.seen.Pitch)
}

func TestGenerateSpeechDefaultVoiceID(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(t, env.db, "a@test.com")
	v := &models.Voice{Name: "Legacy", IsPublic: true} // 没有服务商 ID 的旧记录
	require.NoError(t, models.CreateVoice(env.db, v))

	_, _, err := env.svc.GenerateSpeech(context.Background(), user, "hi", v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wise_Woman", env.tts.seen.VoiceID)
}

func TestGenerateSpeechVoiceNotFound(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(t, env.db, "a@test.com")
	_, _, err := env.svc.GenerateSpeech(context.Background(), user, "hi", 9999)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), "got %v", err)
}

func TestGenerateSpeechPrivateVoiceForbidden(t *testing.T) {
	env := newTestEnv(t)
	owner := testUser(t, env.db, "owner@test.com")
	other := testUser(t, env.db, "other@test.com")
	voice := privateVoice(t, env.db, owner.ID)

	_, _, err := env.svc.GenerateSpeech(context.Background(), other, "hi", voice.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden), "got %v", err)
	assert.EqualValues(t, 0, outputCount(t, env.db))

	// 归属用户可以正常使用
	_, _, err = env.svc.GenerateSpeech(context.Background(), owner, "hi", voice.ID)
	require.NoError(t, err)
	assert.Equal(t, "cv_mine", env.tts.seen.VoiceID)
}

func TestGenerateSpeechValidation(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(t, env.db, "a@test.com")

	_, _, err := env.svc.GenerateSpeech(context.Background(), nil, "hi", 1)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, _, err = env.svc.GenerateSpeech(context.Background(), user, "   ", 1)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
	assert.Equal(t, 0, env.store.puts)
}

func TestGenerateSpeechNoRowOnUploadFailure(t *testing.T) {
	env := newTestEnv(t)
	env.store.failPut = true
	user := testUser(t, env.db, "a@test.com")
	voice := publicVoice(t, env.db)

	_, _, err := env.svc.GenerateSpeech(context.Background(), user, "hi", voice.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUploadFailed))
	assert.EqualValues(t, 0, outputCount(t, env.db))
}

// ---- Transcribe ----

func webmArtifact() *audio.Artifact {
	return &audio.Artifact{
		Name:       "note.webm",
		MIME:       "audio/webm",
		Data:       []byte{0x1A, 0x45, 0xDF, 0xA3, 9, 9},
		Provenance: audio.ProvenanceUploaded,
	}
}

func TestTranscribeSuccess(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(t, env.db, "a@test.com")

	output, err := env.svc.Transcribe(context.Background(), user, webmArtifact())
	require.NoError(t, err)
	assert.Equal(t, models.OutputTypeSTT, output.Type)
	assert.Nil(t, output.VoiceID)
	assert.Equal(t, "hello world", output.InputText)
	assert.Equal(t, 3, output.Duration)
	assert.Contains(t, output.AudioURL, "stt-inputs/")
	assert.Equal(t, 1, env.store.puts)
}

func TestTranscribeValidation(t *testing.T) {
	env := newTestEnv(t)
	user := testUser(t, env.db, "a@test.com")

	_, err := env.svc.Transcribe(context.Background(), nil, webmArtifact())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))

	_, err = env.svc.Transcribe(context.Background(), user, nil)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = env.svc.Transcribe(context.Background(), user, &audio.Artifact{
		Name: "a.flac", MIME: "audio/flac", Data: []byte{1}, Provenance: audio.ProvenanceUploaded,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	assert.Equal(t, 0, env.store.puts)
	assert.EqualValues(t, 0, outputCount(t, env.db))
}

func TestTranscribeTimeout(t *testing.T) {
	env := newTestEnv(t)
	env.stt.delay = 200 * time.Millisecond
	env.svc = New(env.db, env.store, audio.NewNormalizer(nil), env.cloner, env.tts, env.stt,
		Config{TranscribeTimeout: 20 * time.Millisecond})
	user := testUser(t, env.db, "a@test.com")

	_, err := env.svc.Transcribe(context.Background(), user, webmArtifact())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTranscriptionTimeout), "got %v", err)
	assert.EqualValues(t, 0, outputCount(t, env.db))
}

func TestTranscribeWorkerObservedDeadlineIsTimeout(t *testing.T) {
	// 转写方先于协调 select 观察到超时，把 DeadlineExceeded
	// 送进结果通道；该路径同样必须报告超时错误码
	env := newTestEnv(t)
	env.stt.err = context.DeadlineExceeded
	env.svc = New(env.db, env.store, audio.NewNormalizer(nil), env.cloner, env.tts, env.stt,
		Config{TranscribeTimeout: time.Second})
	user := testUser(t, env.db, "a@test.com")

	_, err := env.svc.Transcribe(context.Background(), user, webmArtifact())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTranscriptionTimeout), "got %v", err)
	assert.EqualValues(t, 0, outputCount(t, env.db))
}

func TestTranscribeCallerCancelIsNotTimeout(t *testing.T) {
	env := newTestEnv(t)
	env.stt.delay = 200 * time.Millisecond
	env.svc = New(env.db, env.store, audio.NewNormalizer(nil), env.cloner, env.tts, env.stt,
		Config{TranscribeTimeout: time.Second})
	user := testUser(t, env.db, "a@test.com")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := env.svc.Transcribe(ctx, user, webmArtifact())
	require.Error(t, err)
	assert.False(t, apperrors.IsCode(err, apperrors.CodeTranscriptionTimeout))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranscribeProviderError(t *testing.T) {
	env := newTestEnv(t)
	env.stt.err = apperrors.WithCode(apperrors.CodeProvider, "transcription failed")
	user := testUser(t, env.db, "a@test.com")

	_, err := env.svc.Transcribe(context.Background(), user, webmArtifact())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProvider))
	// 原始音频已经归档，但不能留下输出记录
	assert.Equal(t, 1, env.store.puts)
	assert.EqualValues(t, 0, outputCount(t, env.db))
}
