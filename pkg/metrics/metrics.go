package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 语音流水线指标：上传、服务商调用、转码、转写超时。
var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildvoice_uploads_total",
			Help: "Object storage uploads by folder and outcome",
		},
		[]string{"folder", "outcome"},
	)

	providerCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildvoice_provider_calls_total",
			Help: "AI provider calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	providerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wildvoice_provider_call_seconds",
			Help:    "AI provider call latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	conversionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildvoice_conversions_total",
			Help: "MP3 conversions by outcome",
		},
		[]string{"outcome"},
	)

	transcriptionTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wildvoice_transcription_timeouts_total",
			Help: "Transcriptions abandoned by the 30s race",
		},
	)
)

func outcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ObserveUpload 记录一次对象存储写入
func ObserveUpload(folder string, ok bool) {
	uploadsTotal.WithLabelValues(folder, outcomeLabel(ok)).Inc()
}

// ObserveProviderCall 记录一次服务商调用
func ObserveProviderCall(provider string, ok bool, elapsed time.Duration) {
	providerCalls.WithLabelValues(provider, outcomeLabel(ok)).Inc()
	providerDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveConversion 记录一次 MP3 转码
func ObserveConversion(ok bool) {
	conversionsTotal.WithLabelValues(outcomeLabel(ok)).Inc()
}

// IncTranscriptionTimeout 记录一次转写超时
func IncTranscriptionTimeout() {
	transcriptionTimeouts.Inc()
}
