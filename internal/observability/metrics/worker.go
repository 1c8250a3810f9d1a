package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	taskTotal     *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	taskInFlight  prometheus.Gauge
	phaseDuration *prometheus.HistogramVec
	queueLag      *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	taskTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exportdesk",
			Subsystem: "worker",
			Name:      "task_process_total",
			Help:      "Total processed workflow tasks by kind and status.",
		},
		[]string{"service", "kind", "status"},
	)
	taskDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "exportdesk",
			Subsystem: "worker",
			Name:      "task_process_duration_seconds",
			Help:      "Workflow task duration in seconds by kind and status.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "kind", "status"},
	)
	taskInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "exportdesk",
			Subsystem: "worker",
			Name:      "task_process_in_flight",
			Help:      "Number of in-flight workflow tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	phaseDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "exportdesk",
			Subsystem: "worker",
			Name:      "assistant_phase_duration_seconds",
			Help:      "Assistant workflow phase duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "phase"},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "exportdesk",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between task enqueue and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(taskTotal, taskDuration, taskInFlight, phaseDuration, queueLag)

	return &WorkerMetrics{
		registry:      registry,
		taskTotal:     taskTotal,
		taskDuration:  taskDuration,
		taskInFlight:  taskInFlight,
		phaseDuration: phaseDuration,
		queueLag:      queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartTask() {
	m.taskInFlight.Inc()
}

func (m *WorkerMetrics) FinishTask(service, kind string, duration time.Duration, err error) {
	m.taskInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.taskTotal.WithLabelValues(service, kind, status).Inc()
	m.taskDuration.WithLabelValues(service, kind, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObservePhase(service, phase string, duration time.Duration) {
	if phase == "" {
		phase = "unknown"
	}
	m.phaseDuration.WithLabelValues(service, phase).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
