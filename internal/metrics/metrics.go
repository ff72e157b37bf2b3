// Package metrics содержит метрики Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AIRequestsTotal - запросы к текстовой модели.
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deck_ai_requests_total",
			Help: "Total number of requests to the structure model.",
		},
		[]string{"client", "model", "status"},
	)
	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deck_ai_request_duration_seconds",
			Help:    "Histogram of structure model request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"client", "model"},
	)
	AIPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deck_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(500, 500, 20), // 500, 1000, ..., 10000
		},
		[]string{"model"},
	)

	// ImageJobsTotal - задания генерации картинок по итогу.
	ImageJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deck_image_jobs_total",
			Help: "Total number of slide image jobs processed.",
		},
		[]string{"kind", "status"}, // kind: pipeline|regenerate; status: success|error|skipped
	)
	ImageJobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "deck_image_job_duration_seconds",
		Help:    "Duration of a single slide image job.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s ... ~128s
	})

	// GenerationCyclesTotal - завершённые циклы генерации по конечному этапу.
	GenerationCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deck_generation_cycles_total",
			Help: "Total number of generation cycles by final stage.",
		},
		[]string{"stage"},
	)
	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "deck_generation_duration_seconds",
		Help:    "Duration of full generation cycles.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	// CanvasGesturesTotal - жесты на холсте.
	CanvasGesturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deck_canvas_gestures_total",
			Help: "Total number of completed canvas gestures.",
		},
		[]string{"kind"}, // drag|resize|delete|nudge|edit
	)

	// StoreVersion - текущая версия колоды в хранилище.
	StoreVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "deck_store_version",
		Help: "Current version of the presentation value in the store.",
	})

	// PublishErrorsTotal - ошибки рассылки событий.
	PublishErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deck_publish_errors_total",
			Help: "Total number of failed status event publications.",
		},
		[]string{"publisher"},
	)
)
