package audio

import (
	"sync"
	"time"

	"WildVoice/pkg/errors"
)

// State 录音机状态
type State string

const (
	StateInactive  State = "inactive"
	StateRecording State = "recording"
	StatePaused    State = "paused"

	// stateStarting 占位状态：持有启动权但设备尚未打开。
	// 对外仍报告 inactive。
	stateStarting State = "starting"
)

// Source opens a capture device. Open blocks until the device is granted
// and returns a session that delivers encoded chunks to onChunk. A denied
// device permission surfaces as an error from Open.
type Source interface {
	Open(onChunk func([]byte)) (Session, error)
}

// Session is an exclusive hold on an open capture device.
type Session interface {
	Pause() error
	Resume() error
	// Close stops chunk delivery and releases the device.
	Close() error
}

// Recorder 管理麦克风到音频数据的生命周期：
// inactive --Start--> recording --Stop--> inactive，
// recording <--Pause/Resume--> paused，paused 状态也可直接 Stop。
// chunk 只在 recording 状态下追加，Stop 恰好拼接一次。
type Recorder struct {
	mu       sync.Mutex
	source   Source
	interval time.Duration

	state    State
	chunks   [][]byte
	duration int // 秒
	session  Session
	stopTick chan struct{}
}

// NewRecorder creates a recorder over the given capture source.
func NewRecorder(source Source) *Recorder {
	return NewRecorderWithInterval(source, time.Second)
}

// NewRecorderWithInterval allows tests to shrink the duration tick.
func NewRecorderWithInterval(source Source, interval time.Duration) *Recorder {
	return &Recorder{
		source:   source,
		interval: interval,
		state:    StateInactive,
	}
}

// Start acquires the capture device and begins accumulating chunks.
// Starting while a recording is active is rejected; the caller must Stop
// the previous session first so the device hold is released.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.state != StateInactive {
		r.mu.Unlock()
		return errors.WithCode(errors.CodeValidation, "recording already in progress")
	}
	// 先占住状态再开设备，否则并发 Start 会各开一个会话，
	// 先到的设备句柄被覆盖后永远不会释放。
	r.state = stateStarting
	r.chunks = nil
	r.duration = 0
	r.mu.Unlock()

	session, err := r.source.Open(r.onChunk)
	if err != nil {
		r.mu.Lock()
		r.state = StateInactive
		r.mu.Unlock()
		return errors.WrapCode(errors.CodePermissionDenied, err,
			"Cannot access microphone. Please check permissions")
	}

	r.mu.Lock()
	r.session = session
	r.state = StateRecording
	r.stopTick = make(chan struct{})
	r.mu.Unlock()

	go r.tick(r.stopTick)
	return nil
}

// onChunk appends a delivered chunk. Empty chunks and chunks arriving
// outside the recording state are dropped.
func (r *Recorder) onChunk(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	r.chunks = append(r.chunks, buf)
}

func (r *Recorder) tick(stop <-chan struct{}) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			r.mu.Lock()
			if r.state == StateRecording {
				r.duration++
			}
			r.mu.Unlock()
		}
	}
}

// Stop halts the ticker, releases the device and assembles the accumulated
// chunks into a single WebM-tagged artifact. Stopping an inactive recorder
// is a no-op returning (nil, nil). An empty recording yields a zero-length
// artifact rather than an error.
func (r *Recorder) Stop() (*Artifact, error) {
	r.mu.Lock()
	if r.state == StateInactive || r.state == stateStarting {
		r.mu.Unlock()
		return nil, nil
	}
	r.state = StateInactive
	close(r.stopTick)
	session := r.session
	r.session = nil

	var size int
	for _, c := range r.chunks {
		size += len(c)
	}
	data := make([]byte, 0, size)
	for _, c := range r.chunks {
		data = append(data, c...)
	}
	r.chunks = nil
	r.mu.Unlock()

	if err := session.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to release capture device")
	}
	return NewRecordedArtifact(data), nil
}

// Pause suspends chunk accumulation; no-op unless recording.
func (r *Recorder) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return
	}
	if err := r.session.Pause(); err != nil {
		return
	}
	r.state = StatePaused
}

// Resume continues a paused recording; no-op unless paused.
func (r *Recorder) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StatePaused {
		return
	}
	if err := r.session.Resume(); err != nil {
		return
	}
	r.state = StateRecording
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateStarting {
		return StateInactive
	}
	return r.state
}

// Duration returns elapsed recording seconds (paused time excluded).
func (r *Recorder) Duration() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration
}
