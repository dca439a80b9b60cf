// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollsTotal        prometheus.Counter
	PollFailures      prometheus.Counter
	FetchRetries      prometheus.Counter
	SessionsStarted   prometheus.Counter
	SessionsStopped   *prometheus.CounterVec
	ItemsEmitted      *prometheus.CounterVec
	ArchiveInserts    prometheus.Counter
	ArchiveInsertErrs prometheus.Counter

	// Histograms (seconds)
	FetchDuration prometheus.Observer

	// Gauges
	SessionUpGauge prometheus.Gauge // 1=polling, 0=not
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollsTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "chattail_polls_total", Help: "Number of continuation fetches attempted"})
		PollFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "chattail_poll_failures_total", Help: "Number of continuation fetches that failed"})
		FetchRetries = promauto.NewCounter(prometheus.CounterOpts{Name: "chattail_fetch_retries_total", Help: "Number of backoff retries after transient fetch failures"})
		SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "chattail_sessions_started_total", Help: "Number of polling sessions started"})
		SessionsStopped = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chattail_sessions_stopped_total", Help: "Number of polling sessions ended, by final state"}, []string{"state"})
		ItemsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{Name: "chattail_items_emitted_total", Help: "Number of normalized chat items emitted, by kind"}, []string{"kind"})
		ArchiveInserts = promauto.NewCounter(prometheus.CounterOpts{Name: "chattail_archive_inserts_total", Help: "Number of chat items persisted to the archive"})
		ArchiveInsertErrs = promauto.NewCounter(prometheus.CounterOpts{Name: "chattail_archive_insert_errors_total", Help: "Number of failed archive inserts"})
		FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "chattail_fetch_duration_seconds", Help: "Continuation fetch duration seconds", Buckets: prometheus.DefBuckets})
		SessionUpGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "chattail_session_up", Help: "Session polling=1 otherwise=0"})
	})
}

// The helpers below guard against uninitialized metrics so library
// consumers and tests that never call Init still work.

// IncPoll counts one continuation fetch attempt.
func IncPoll() {
	if PollsTotal != nil {
		PollsTotal.Inc()
	}
}

// IncPollFailure counts one failed continuation fetch.
func IncPollFailure() {
	if PollFailures != nil {
		PollFailures.Inc()
	}
}

// IncRetry counts one backoff retry.
func IncRetry() {
	if FetchRetries != nil {
		FetchRetries.Inc()
	}
}

// IncSessionStarted counts one session start.
func IncSessionStarted() {
	if SessionsStarted != nil {
		SessionsStarted.Inc()
	}
}

// IncSessionStopped counts one session end with its final state.
func IncSessionStopped(state string) {
	if SessionsStopped != nil {
		SessionsStopped.WithLabelValues(state).Inc()
	}
}

// IncItem counts one emitted item by kind (text, superchat, membership).
func IncItem(kind string) {
	if ItemsEmitted != nil {
		ItemsEmitted.WithLabelValues(kind).Inc()
	}
}

// IncArchiveInsert counts one archive insert, failed or not.
func IncArchiveInsert(failed bool) {
	if failed {
		if ArchiveInsertErrs != nil {
			ArchiveInsertErrs.Inc()
		}
		return
	}
	if ArchiveInserts != nil {
		ArchiveInserts.Inc()
	}
}

// ObserveFetch records a continuation fetch duration.
func ObserveFetch(d time.Duration) {
	if FetchDuration != nil {
		FetchDuration.Observe(d.Seconds())
	}
}

// SetSessionUp sets the gauge to 1 while a session is polling.
func SetSessionUp(up bool) {
	if SessionUpGauge != nil {
		if up {
			SessionUpGauge.Set(1)
		} else {
			SessionUpGauge.Set(0)
		}
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding correlation id (if absent) and the id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
