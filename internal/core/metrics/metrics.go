// Package metrics 集中定义 prometheus 指标，进程内只注册一次（promauto，默认 registry）。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storeapi"

var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests.",
	},
	[]string{"path", "method", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"path", "method"},
)

// TasksTotal 后台任务结果
// result: ok / error / panic / dropped / abandoned
var TasksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "background_tasks_total",
		Help:      "Background tasks by name and result.",
	},
	[]string{"task", "result"},
)

var TaskDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "background_task_duration_seconds",
		Help:      "Duration of background tasks.",
		Buckets:   []float64{.05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
	},
	[]string{"task"},
)

var TasksInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "background_tasks_in_flight",
		Help:      "Background tasks currently running.",
	},
)

// ImageGenerationsTotal result: ok / error / skipped（帖子已有图或已删除）
var ImageGenerationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_generations_total",
		Help:      "Generated-image enrichment attempts by result.",
	},
	[]string{"result"},
)

// FeedCacheTotal result: hit / miss / error
var FeedCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_cache_total",
		Help:      "Feed cache lookups by result.",
	},
	[]string{"result"},
)

var MailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mails_total",
		Help:      "Outgoing e-mails by kind and result.",
	},
	[]string{"kind", "result"},
)
