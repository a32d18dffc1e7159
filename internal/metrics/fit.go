// Package metrics 暴露 HTTP、任务队列与自动排版引擎的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace 是所有指标的前缀。
const Namespace = "fitresume"

var (
	probesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "fit",
			Name:      "probes_total",
			Help:      "溢出探测次数，按结果区分。",
		},
		[]string{"outcome"},
	)

	presetSwitchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "fit",
			Name:      "preset_switches_total",
			Help:      "自动切换排版密度的次数。",
		},
		[]string{"to"},
	)

	overflowAtMax = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "fit",
			Name:      "sessions_overflow_at_max",
			Help:      "在最密排版下仍然溢出的会话数量。",
		},
	)

	searchFrames = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "fit",
			Name:      "search_frames",
			Help:      "一次自动排版搜索从开始到稳定所用的帧数。",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "当前存活的编辑会话数量。",
		},
	)

	autosaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "session",
			Name:      "autosave_failures_total",
			Help:      "草稿自动保存失败次数。",
		},
	)

	importsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "import",
			Name:      "files_total",
			Help:      "导入文件数量，按结果区分。",
		},
		[]string{"result"},
	)
)

// ObserveProbe 记录一次溢出探测。
func ObserveProbe(overflowing bool) {
	if overflowing {
		probesTotal.WithLabelValues("overflow").Inc()
		return
	}
	probesTotal.WithLabelValues("fit").Inc()
}

// ObservePresetSwitch 记录一次自动切换。
func ObservePresetSwitch(to string) {
	presetSwitchesTotal.WithLabelValues(to).Inc()
}

// OverflowAtMaxChanged 在会话进入或离开“最密仍溢出”状态时调用。
func OverflowAtMaxChanged(entered bool) {
	if entered {
		overflowAtMax.Inc()
		return
	}
	overflowAtMax.Dec()
}

// ObserveSearch 记录一次搜索的帧数。
func ObserveSearch(frames int) {
	searchFrames.Observe(float64(frames))
}

func SessionOpened() { activeSessions.Inc() }

func SessionClosed() { activeSessions.Dec() }

func AutosaveFailed() { autosaveFailures.Inc() }

// ObserveImport 记录导入结果：ok、insufficient、failed、rejected。
func ObserveImport(result string) {
	importsTotal.WithLabelValues(result).Inc()
}
