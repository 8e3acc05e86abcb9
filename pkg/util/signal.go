package util

import "sync"

// SignalHandler 信号处理函数
type SignalHandler func(sender any, params ...any)

// SignalHub 进程内信号总线，监听器通过 Connect 注册，业务代码通过 Emit 广播
type SignalHub struct {
	mu       sync.RWMutex
	handlers map[string][]SignalHandler
}

var (
	sigOnce sync.Once
	sigHub  *SignalHub
)

// Sig 返回全局信号总线
func Sig() *SignalHub {
	sigOnce.Do(func() {
		sigHub = &SignalHub{handlers: make(map[string][]SignalHandler)}
	})
	return sigHub
}

// Connect 注册信号监听器
func (h *SignalHub) Connect(name string, fn SignalHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[name] = append(h.handlers[name], fn)
}

// Emit 同步触发信号，按注册顺序调用
func (h *SignalHub) Emit(name string, sender any, params ...any) {
	h.mu.RLock()
	hs := append([]SignalHandler(nil), h.handlers[name]...)
	h.mu.RUnlock()
	for _, fn := range hs {
		fn(sender, params...)
	}
}
