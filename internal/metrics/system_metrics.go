package metrics

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

var (
	systemCPUUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "system_cpu_usage_percent",
			Help: "Current CPU usage percentage",
		},
		[]string{"core"},
	)

	systemMemoryUsage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "system_memory_usage_bytes",
			Help: "Current memory usage in bytes",
		},
		[]string{"type"},
	)

	goGoroutines = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "service_go_goroutines",
			Help: "Number of goroutines that currently exist",
		},
		[]string{"service"},
	)

	goHeapAlloc = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "service_go_heap_alloc_bytes",
			Help: "Heap memory usage in bytes",
		},
		[]string{"service"},
	)

	goHeapSys = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "service_go_heap_sys_bytes",
			Help: "Heap memory reserved in bytes",
		},
		[]string{"service"},
	)
)

// collectSystemMetrics samples host CPU and memory via gopsutil.
func collectSystemMetrics() {
	if cpuPercentages, err := cpu.Percent(0, true); err == nil {
		for i, percentage := range cpuPercentages {
			systemCPUUsage.WithLabelValues(fmt.Sprintf("cpu%d", i)).Set(percentage)
		}
	}

	if vmstat, err := mem.VirtualMemory(); err == nil {
		systemMemoryUsage.WithLabelValues("total").Set(float64(vmstat.Total))
		systemMemoryUsage.WithLabelValues("available").Set(float64(vmstat.Available))
		systemMemoryUsage.WithLabelValues("used").Set(float64(vmstat.Used))
	}
}

// collectGoRuntimeMetrics samples Go runtime stats.
func collectGoRuntimeMetrics(serviceName string) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	goGoroutines.WithLabelValues(serviceName).Set(float64(runtime.NumGoroutine()))
	goHeapAlloc.WithLabelValues(serviceName).Set(float64(m.HeapAlloc))
	goHeapSys.WithLabelValues(serviceName).Set(float64(m.HeapSys))
}

// StartSystemMetricsCollection starts a goroutine sampling host and
// runtime metrics. Disabled unless ENABLE_SYSTEM_METRICS=true.
func StartSystemMetricsCollection(serviceName string, interval time.Duration) {
	if os.Getenv("ENABLE_SYSTEM_METRICS") != "true" {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for range ticker.C {
			collectSystemMetrics()
			collectGoRuntimeMetrics(serviceName)
		}
	}()
}
