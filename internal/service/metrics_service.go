package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the portal.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	complaintsSubmitted   prometheus.Counter
	notificationsEmitted  prometheus.Counter
	notificationsFailed   prometheus.Counter
	notificationQueueSize prometheus.Gauge
}

// NewMetricsService registers the portal collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	complaintsSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "complaints_submitted_total",
		Help: "Total complaints accepted for processing",
	})

	notificationsEmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_emitted_total",
		Help: "Total notifications written for recipients",
	})

	notificationsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Total notification writes that went to the replay queue",
	})

	notificationQueueSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notification_replay_queue_size",
		Help: "Notifications currently waiting for replay",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, complaintsSubmitted, notificationsEmitted, notificationsFailed, notificationQueueSize, goroutines)

	return &MetricsService{
		registry:              registry,
		handler:               promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:       requestDuration,
		requestTotal:          requestTotal,
		complaintsSubmitted:   complaintsSubmitted,
		notificationsEmitted:  notificationsEmitted,
		notificationsFailed:   notificationsFailed,
		notificationQueueSize: notificationQueueSize,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request duration and count.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ComplaintSubmitted counts one accepted complaint.
func (m *MetricsService) ComplaintSubmitted() {
	if m == nil {
		return
	}
	m.complaintsSubmitted.Inc()
}

// NotificationEmitted counts one successfully written notification.
func (m *MetricsService) NotificationEmitted() {
	if m == nil {
		return
	}
	m.notificationsEmitted.Inc()
}

// NotificationFailed counts one write that fell back to the replay queue.
func (m *MetricsService) NotificationFailed() {
	if m == nil {
		return
	}
	m.notificationsFailed.Inc()
}

// SetNotificationQueueSize reports the replay queue depth.
func (m *MetricsService) SetNotificationQueueSize(n int) {
	if m == nil {
		return
	}
	m.notificationQueueSize.Set(float64(n))
}
