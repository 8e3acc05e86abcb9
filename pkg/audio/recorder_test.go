package audio

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	wverrors "WildVoice/pkg/errors"
)

type fakeSession struct {
	mu     sync.Mutex
	paused bool
	closed bool
}

func (s *fakeSession) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	return nil
}

func (s *fakeSession) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// fakeSource delivers scripted chunks through the recorder callback.
type fakeSource struct {
	openErr error
	onChunk func([]byte)
	session *fakeSession
}

func (s *fakeSource) Open(onChunk func([]byte)) (Session, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.onChunk = onChunk
	s.session = &fakeSession{}
	return s.session, nil
}

func (s *fakeSource) emit(chunk []byte) { s.onChunk(chunk) }

// gatedSource blocks inside Open until released, so tests can hold a Start
// call mid-acquisition.
type gatedSource struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once

	mu      sync.Mutex
	opens   int
	session *fakeSession
}

func (s *gatedSource) Open(onChunk func([]byte)) (Session, error) {
	s.mu.Lock()
	s.opens++
	s.mu.Unlock()
	s.once.Do(func() { close(s.entered) })
	<-s.release
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &fakeSession{}
	return s.session, nil
}

func (s *gatedSource) openCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

func TestRecorderLifecycle(t *testing.T) {
	t.Run("StartEmitStop", func(t *testing.T) {
		src := &fakeSource{}
		r := NewRecorder(src)

		if err := r.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if got := r.State(); got != StateRecording {
			t.Errorf("state = %q, want recording", got)
		}

		src.emit([]byte("abc"))
		src.emit([]byte("def"))

		artifact, err := r.Stop()
		if err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if !bytes.Equal(artifact.Data, []byte("abcdef")) {
			t.Errorf("artifact data = %q, want abcdef", artifact.Data)
		}
		if artifact.MIME != "audio/webm" {
			t.Errorf("artifact MIME = %q, want audio/webm", artifact.MIME)
		}
		if artifact.Provenance != ProvenanceRecorded {
			t.Errorf("provenance = %q, want recorded", artifact.Provenance)
		}
		if !src.session.closed {
			t.Error("device session not released after Stop")
		}
		if got := r.State(); got != StateInactive {
			t.Errorf("state after stop = %q, want inactive", got)
		}
	})

	t.Run("StopBeforeAnyData", func(t *testing.T) {
		src := &fakeSource{}
		r := NewRecorder(src)
		if err := r.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		artifact, err := r.Stop()
		if err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if len(artifact.Data) != 0 {
			t.Errorf("expected empty artifact, got %d bytes", len(artifact.Data))
		}
	})

	t.Run("DoubleStopIsNoop", func(t *testing.T) {
		src := &fakeSource{}
		r := NewRecorder(src)
		if err := r.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if _, err := r.Stop(); err != nil {
			t.Fatalf("first Stop failed: %v", err)
		}
		artifact, err := r.Stop()
		if err != nil {
			t.Fatalf("second Stop errored: %v", err)
		}
		if artifact != nil {
			t.Error("second Stop should not produce an artifact")
		}
	})

	t.Run("StopWhenInactiveIsNoop", func(t *testing.T) {
		r := NewRecorder(&fakeSource{})
		artifact, err := r.Stop()
		if err != nil || artifact != nil {
			t.Errorf("Stop on inactive recorder = (%v, %v), want (nil, nil)", artifact, err)
		}
	})

	t.Run("StartWhileRecordingRejected", func(t *testing.T) {
		src := &fakeSource{}
		r := NewRecorder(src)
		if err := r.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if err := r.Start(); err == nil {
			t.Error("second Start should be rejected")
		}
		if _, err := r.Stop(); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
	})

	t.Run("ConcurrentStartOpensOneSession", func(t *testing.T) {
		src := &gatedSource{
			entered: make(chan struct{}),
			release: make(chan struct{}),
		}
		r := NewRecorder(src)

		firstErr := make(chan error, 1)
		go func() { firstErr <- r.Start() }()
		<-src.entered // 第一个 Start 已持有设备打开权

		// 打开尚未完成时的第二个 Start 必须被拒绝，
		// 否则先到的设备句柄被覆盖，永远不会释放
		if err := r.Start(); err == nil {
			t.Fatal("Start during an in-flight Start should be rejected")
		} else if !wverrors.IsCode(err, wverrors.CodeValidation) {
			t.Errorf("error code = %d, want Validation", wverrors.CodeOf(err))
		}

		close(src.release)
		if err := <-firstErr; err != nil {
			t.Fatalf("first Start failed: %v", err)
		}
		if got := src.openCount(); got != 1 {
			t.Fatalf("device opened %d times, want 1", got)
		}
		if _, err := r.Stop(); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if !src.session.closed {
			t.Error("device session not released after Stop")
		}
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		src := &fakeSource{openErr: errors.New("NotAllowedError")}
		r := NewRecorder(src)
		err := r.Start()
		if err == nil {
			t.Fatal("Start should fail when the device is denied")
		}
		if !wverrors.IsCode(err, wverrors.CodePermissionDenied) {
			t.Errorf("error code = %d, want PermissionDenied", wverrors.CodeOf(err))
		}
		if got := r.State(); got != StateInactive {
			t.Errorf("state after denied start = %q, want inactive", got)
		}

		// 失败后回滚，重试可以成功
		src.openErr = nil
		if err := r.Start(); err != nil {
			t.Fatalf("retry after denied start failed: %v", err)
		}
		if _, err := r.Stop(); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
	})

	t.Run("EmptyChunksDropped", func(t *testing.T) {
		src := &fakeSource{}
		r := NewRecorder(src)
		if err := r.Start(); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		src.emit(nil)
		src.emit([]byte{})
		src.emit([]byte("x"))
		artifact, err := r.Stop()
		if err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
		if !bytes.Equal(artifact.Data, []byte("x")) {
			t.Errorf("artifact data = %q, want x", artifact.Data)
		}
	})
}

func TestRecorderPauseResume(t *testing.T) {
	src := &fakeSource{}
	r := NewRecorder(src)

	// no-ops outside their valid states
	r.Pause()
	r.Resume()
	if got := r.State(); got != StateInactive {
		t.Fatalf("state = %q, want inactive", got)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	src.emit([]byte("aa"))

	r.Pause()
	if got := r.State(); got != StatePaused {
		t.Fatalf("state = %q, want paused", got)
	}
	src.emit([]byte("dropped")) // chunks must not accumulate while paused

	r.Pause() // no-op when already paused

	r.Resume()
	if got := r.State(); got != StateRecording {
		t.Fatalf("state = %q, want recording", got)
	}
	src.emit([]byte("bb"))

	// stop reachable directly from paused as well
	r.Pause()
	artifact, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !bytes.Equal(artifact.Data, []byte("aabb")) {
		t.Errorf("artifact data = %q, want aabb", artifact.Data)
	}
}

func TestRecorderDurationTicks(t *testing.T) {
	src := &fakeSource{}
	r := NewRecorderWithInterval(src, 5*time.Millisecond)
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(40 * time.Millisecond)
	if r.Duration() == 0 {
		t.Error("duration did not advance while recording")
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	after := r.Duration()
	time.Sleep(20 * time.Millisecond)
	if r.Duration() != after {
		t.Error("duration advanced after Stop")
	}
}
