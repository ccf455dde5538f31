package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "code"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)

	// Dispatcher
	dispatcherTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatcher_ticks_total",
			Help: "Total number of dispatcher polling ticks.",
		},
	)
	dispatcherTickErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatcher_tick_errors_total",
			Help: "Total number of dispatcher ticks that failed to claim.",
		},
	)
	schedulesClaimed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedules_claimed_total",
			Help: "Total number of schedule rows claimed by the dispatcher.",
		},
	)
	schedulesPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedules_published_total",
			Help: "Total number of schedules delivered successfully.",
		},
	)
	schedulesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedules_failed_total",
			Help: "Total number of schedules that ended in error, by reason.",
		},
		[]string{"reason"}, // no_adapter, config, delivery, store
	)
	schedulesReleased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedules_released_total",
			Help: "Total number of stuck schedule rows reset to pending.",
		},
	)
	publishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "publish_duration_seconds",
			Help:    "Time spent in a single publisher call (seconds).",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"platform"},
	)
	scheduleLagSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "schedule_lag_seconds",
			Help:    "Lag between publish_at and the claim that picked the row up (seconds).",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
	)
	scheduleStatusCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "schedule_status_count",
			Help: "Current count of schedule rows by status.",
		},
		[]string{"status"},
	)
	schedulePendingCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedule_pending_count",
			Help: "Current number of pending schedule rows.",
		},
	)

	// Audit trail (Kafka)
	auditEventsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_sent_total",
			Help: "Total number of audit events published to Kafka.",
		},
	)
	auditEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_dropped_total",
			Help: "Total number of audit events dropped (full buffer or send error).",
		},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,

			dispatcherTicks,
			dispatcherTickErrors,
			schedulesClaimed,
			schedulesPublished,
			schedulesFailed,
			schedulesReleased,
			publishDuration,
			scheduleLagSeconds,
			scheduleStatusCount,
			schedulePendingCount,

			auditEventsSent,
			auditEventsDropped,
		)
		registerRedisMetrics()
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// --- HTTP ---
func ObserveHTTPRequest(method, route, code string, d time.Duration) {
	httpRequests.WithLabelValues(method, route, code).Inc()
	httpDuration.WithLabelValues(method, route, code).Observe(d.Seconds())
}

// --- Dispatcher ---
func IncDispatcherTick()      { dispatcherTicks.Inc() }
func IncDispatcherTickError() { dispatcherTickErrors.Inc() }
func AddSchedulesClaimed(n int) {
	if n > 0 {
		schedulesClaimed.Add(float64(n))
	}
}
func IncSchedulePublished()           { schedulesPublished.Inc() }
func IncScheduleFailed(reason string) { schedulesFailed.WithLabelValues(reason).Inc() }
func AddSchedulesReleased(n int) {
	if n > 0 {
		schedulesReleased.Add(float64(n))
	}
}
func ObservePublishDuration(platform string, d time.Duration) {
	publishDuration.WithLabelValues(platform).Observe(d.Seconds())
}
func ObserveScheduleLagSeconds(sec float64) {
	if sec < 0 {
		sec = 0
	}
	scheduleLagSeconds.Observe(sec)
}

// --- Audit ---
func IncAuditEventSent()    { auditEventsSent.Inc() }
func IncAuditEventDropped() { auditEventsDropped.Inc() }

// --- Gauges (DB collector) ---
func SetScheduleStatusCount(status string, count int64) {
	if count < 0 {
		count = 0
	}
	scheduleStatusCount.WithLabelValues(status).Set(float64(count))
}
func SetSchedulePendingCount(count int64) {
	if count < 0 {
		count = 0
	}
	schedulePendingCount.Set(float64(count))
}

// helpers
func fmtInt(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [32]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
