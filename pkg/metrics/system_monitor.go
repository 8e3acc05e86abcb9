package metrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var (
	systemCPUUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_cpu_usage_percent",
		Help: "Host CPU usage percent",
	})
	systemMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_memory_usage_percent",
		Help: "Host memory usage percent",
	})
	systemGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "system_goroutines",
		Help: "Number of goroutines",
	})
)

// StartSystemMonitor 周期采集主机与运行时指标，ctx 取消后停止
func StartSystemMonitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				collectSystemStats()
			}
		}
	}()
}

func collectSystemStats() {
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		systemCPUUsage.Set(percents[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		systemMemoryUsage.Set(vm.UsedPercent)
	}
	systemGoroutines.Set(float64(runtime.NumGoroutine()))
}
