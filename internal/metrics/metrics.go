package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BadgeLockWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "uber_badge_lock_wait_seconds",
		Help:    "Time spent waiting for the badge numbering lock",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
	})

	Flushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uber_session_flushes_total",
		Help: "Session flushes by outcome",
	}, []string{"outcome"})

	TrackingRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uber_tracking_rows_total",
		Help: "Audit rows written by action",
	}, []string{"action"})

	BadgeShifts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "uber_badge_shifts_total",
		Help: "Badges renumbered by automatic shifting",
	})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uber_db_query_seconds",
		Help:    "Database statement latency by operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uber_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "uber_http_request_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	databaseEmptyRead = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "uber_database_empty_read_microsec",
		Help: "The latency of an empty database read in microseconds",
	})
)

// WatchDatabase samples the latency of ping every interval until ctx ends.
func WatchDatabase(ctx context.Context, interval time.Duration, ping func(context.Context) error) {
	databaseEmptyRead.Set(0)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Debug("database latency watcher stopped")
				return
			case <-ticker.C:
				start := time.Now()
				if err := ping(ctx); err != nil {
					slog.Error("can't get database latency", "error", err)
					continue
				}
				databaseEmptyRead.Set(float64(time.Since(start).Microseconds()))
			}
		}
	}()
}
