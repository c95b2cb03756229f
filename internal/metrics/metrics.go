// Package metrics holds the process-local request metrics. The collector is
// constructed once at startup and injected (never a package global) so tests
// can substitute their own instance. The same observations feed a dedicated
// prometheus registry exposed separately.
package metrics

import (
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sampleWindow = 2048

type Collector struct {
	mu       sync.Mutex
	start    time.Time
	requests map[string]int64
	errors   map[string]int64
	inFlight int64
	total    int64

	samples [sampleWindow]float64
	filled  int
	next    int

	registry       *prometheus.Registry
	requestsTotal  *prometheus.CounterVec
	requestSeconds *prometheus.HistogramVec
	inFlightGauge  prometheus.Gauge
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "studycare_http_requests_total",
		Help: "HTTP requests by method and status.",
	}, []string{"method", "status"})
	requestSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studycare_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	inFlightGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "studycare_http_in_flight_requests",
		Help: "Requests currently being served.",
	})
	registry.MustRegister(requestsTotal, requestSeconds, inFlightGauge)

	return &Collector{
		start:          time.Now(),
		requests:       make(map[string]int64),
		errors:         make(map[string]int64),
		registry:       registry,
		requestsTotal:  requestsTotal,
		requestSeconds: requestSeconds,
		inFlightGauge:  inFlightGauge,
	}
}

func (c *Collector) ObserveRequest(method string, status int, elapsed time.Duration) {
	key := method + " " + strconv.Itoa(status)
	millis := float64(elapsed) / float64(time.Millisecond)

	c.mu.Lock()
	c.requests[key]++
	c.total++
	c.samples[c.next] = millis
	c.next = (c.next + 1) % sampleWindow
	if c.filled < sampleWindow {
		c.filled++
	}
	c.mu.Unlock()

	c.requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.requestSeconds.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveError(code string) {
	c.mu.Lock()
	c.errors[code]++
	c.mu.Unlock()
}

func (c *Collector) IncInFlight() {
	c.mu.Lock()
	c.inFlight++
	c.mu.Unlock()
	c.inFlightGauge.Inc()
}

func (c *Collector) DecInFlight() {
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
	c.inFlightGauge.Dec()
}

type Snapshot struct {
	UptimeSeconds float64          `json:"uptime_seconds"`
	TotalRequests int64            `json:"total_requests"`
	Requests      map[string]int64 `json:"requests"`
	Errors        map[string]int64 `json:"errors"`
	InFlight      int64            `json:"in_flight"`
	LatencyP50Ms  float64          `json:"latency_p50_ms"`
	LatencyP95Ms  float64          `json:"latency_p95_ms"`
	LatencyP99Ms  float64          `json:"latency_p99_ms"`
	HeapBytes     uint64           `json:"heap_bytes"`
	Goroutines    int              `json:"goroutines"`
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	requests := make(map[string]int64, len(c.requests))
	for key, count := range c.requests {
		requests[key] = count
	}
	errorCounts := make(map[string]int64, len(c.errors))
	for code, count := range c.errors {
		errorCounts[code] = count
	}
	sorted := make([]float64, c.filled)
	copy(sorted, c.samples[:c.filled])
	snap := Snapshot{
		UptimeSeconds: time.Since(c.start).Seconds(),
		TotalRequests: c.total,
		Requests:      requests,
		Errors:        errorCounts,
		InFlight:      c.inFlight,
	}
	c.mu.Unlock()

	sort.Float64s(sorted)
	snap.LatencyP50Ms = percentile(sorted, 0.50)
	snap.LatencyP95Ms = percentile(sorted, 0.95)
	snap.LatencyP99Ms = percentile(sorted, 0.99)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	snap.HeapBytes = mem.HeapAlloc
	snap.Goroutines = runtime.NumGoroutine()
	return snap
}

// PrometheusHandler serves the mirrored registry.
func (c *Collector) PrometheusHandler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(q * float64(len(sorted)-1))
	return sorted[idx]
}

func (s Snapshot) String() string {
	return fmt.Sprintf("requests=%d inflight=%d p95=%.1fms", s.TotalRequests, s.InFlight, s.LatencyP95Ms)
}
