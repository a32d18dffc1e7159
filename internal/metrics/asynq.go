package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 任务结果：ok 成功，retry 交给 asynq 重试，skip 为不可重试的永久失败。
const (
	taskResultOK    = "ok"
	taskResultRetry = "retry"
	taskResultSkip  = "skip"
)

var (
	tasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "worker",
			Name:      "tasks_total",
			Help:      "按结果统计的任务处理次数。",
		},
		[]string{"task_type", "result"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "任务处理耗时（秒），导出任务包含排版与渲染。",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"task_type"},
	)

	tasksInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "worker",
			Name:      "tasks_in_flight",
			Help:      "正在处理的任务数。",
		},
		[]string{"task_type"},
	)
)

func taskResult(err error) string {
	switch {
	case err == nil:
		return taskResultOK
	case errors.Is(err, asynq.SkipRetry):
		return taskResultSkip
	default:
		return taskResultRetry
	}
}

// AsynqMetricsMiddleware 记录每个任务的耗时与结果。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			taskType := task.Type()
			inFlight := tasksInFlight.WithLabelValues(taskType)
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			err := next.ProcessTask(ctx, task)
			taskDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			tasksTotal.WithLabelValues(taskType, taskResult(err)).Inc()
			return err
		})
	}
}
