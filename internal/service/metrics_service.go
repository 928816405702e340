package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for the API. All recording
// methods are safe on a nil receiver so tests can skip metrics wiring.
type MetricsService struct {
	registry *prometheus.Registry

	httpDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec

	cacheLatency prometheus.Histogram
	cacheWrites  prometheus.Histogram
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	hitRatio     prometheus.Gauge

	attendanceMarks *prometheus.CounterVec

	hitCount  int64
	missCount int64
}

func NewMetricsService() *MetricsService {
	reg := prometheus.NewRegistry()
	s := &MetricsService{
		registry: reg,
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Count of HTTP requests by route and status.",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency of cache reads.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		}),
		cacheWrites: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency of cache writes.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses.",
		}),
		hitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache reads.",
		}),
		attendanceMarks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attendance_marks_total",
			Help: "Attendance records written, by resulting status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		s.httpDuration,
		s.httpRequests,
		s.cacheLatency,
		s.cacheWrites,
		s.cacheHits,
		s.cacheMisses,
		s.hitRatio,
		s.attendanceMarks,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "goroutines_total",
			Help: "Current number of goroutines.",
		}, func() float64 { return float64(runtime.NumGoroutine()) }),
	)

	return s
}

// Handler serves the registry in the Prometheus exposition format.
func (s *MetricsService) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one completed request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	code := strconv.Itoa(status)
	s.httpDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	s.httpRequests.WithLabelValues(method, path, code).Inc()
}

// RecordCacheOperation records one cache read and refreshes the hit ratio.
func (s *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if s == nil {
		return
	}
	s.cacheLatency.Observe(duration.Seconds())

	if hit {
		s.cacheHits.Inc()
		atomic.AddInt64(&s.hitCount, 1)
	} else {
		s.cacheMisses.Inc()
		atomic.AddInt64(&s.missCount, 1)
	}

	hits := atomic.LoadInt64(&s.hitCount)
	total := hits + atomic.LoadInt64(&s.missCount)
	if total > 0 {
		s.hitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite records the latency of one cache write.
func (s *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if s == nil {
		return
	}
	s.cacheWrites.Observe(duration.Seconds())
}

// RecordAttendanceMark counts one attendance write by its stored status.
func (s *MetricsService) RecordAttendanceMark(status string) {
	if s == nil {
		return
	}
	s.attendanceMarks.WithLabelValues(status).Inc()
}
