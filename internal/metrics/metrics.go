package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vkbot",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total VK API method calls.",
		},
		[]string{"method", "status"},
	)
	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vkbot",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "VK API call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
	longPollCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vkbot",
			Subsystem: "longpoll",
			Name:      "cycles_total",
			Help:      "Long Poll wait cycles by outcome.",
		},
		[]string{"outcome"},
	)
	longPollUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vkbot",
			Subsystem: "longpoll",
			Name:      "updates_total",
			Help:      "Updates received from the Long Poll server.",
		},
	)
	webhookRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vkbot",
			Subsystem: "webhook",
			Name:      "requests_total",
			Help:      "Callback API requests.",
		},
		[]string{"type", "status"},
	)
	webhookDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vkbot",
			Subsystem: "webhook",
			Name:      "request_duration_seconds",
			Help:      "Callback API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"type", "status"},
	)
)

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			apiRequests, apiDuration,
			longPollCycles, longPollUpdates,
			webhookRequests, webhookDuration,
		)
	})
}

func RecordAPIRequest(method string, status int, duration time.Duration) {
	Register()
	statusLabel := strconv.Itoa(status)
	apiRequests.WithLabelValues(method, statusLabel).Inc()
	apiDuration.WithLabelValues(method, statusLabel).Observe(duration.Seconds())
}

func RecordLongPollCycle(outcome string, updates int) {
	Register()
	longPollCycles.WithLabelValues(outcome).Inc()
	if updates > 0 {
		longPollUpdates.Add(float64(updates))
	}
}

func RecordWebhookRequest(eventType string, status int, duration time.Duration) {
	Register()
	statusLabel := strconv.Itoa(status)
	webhookRequests.WithLabelValues(eventType, statusLabel).Inc()
	webhookDuration.WithLabelValues(eventType, statusLabel).Observe(duration.Seconds())
}
