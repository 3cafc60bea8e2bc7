// Package metrics exposes Prometheus collectors for the matcher,
// grounded on internal/metrics/metrics.go's Counter/Histogram/Gauge
// registration pattern (see DESIGN.md), relabeled for claims, matches,
// evictions, and queue-scan latency instead of job-processing counters.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects matcher-specific Prometheus metrics.
type Collector struct {
	matches    prometheus.Counter
	noMatches  prometheus.Counter
	evictions  prometheus.Counter
	claimTime  prometheus.Histogram
	queueDepth prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with the
// default registry, reusing whatever is already registered under the
// same name instead of panicking. buildRuntime may construct more than
// one Collector in a single process (tests, the match subcommand run
// repeatedly).
func NewCollector() *Collector {
	return &Collector{
		matches: registerCounter(prometheus.CounterOpts{
			Name: "matcher_requests_matched_total",
			Help: "Total number of requestJob calls that returned a job.",
		}),
		noMatches: registerCounter(prometheus.CounterOpts{
			Name: "matcher_requests_nomatch_total",
			Help: "Total number of requestJob calls that returned NoMatch.",
		}),
		evictions: registerCounter(prometheus.CounterOpts{
			Name: "matcher_stale_evictions_total",
			Help: "Total number of stale task-queue entries evicted on encounter.",
		}),
		claimTime: registerHistogram(prometheus.HistogramOpts{
			Name:    "matcher_claim_duration_seconds",
			Help:    "Time spent inside the claim coordinator's critical section.",
			Buckets: prometheus.DefBuckets,
		}),
		queueDepth: registerGauge(prometheus.GaugeOpts{
			Name: "matcher_task_queue_depth",
			Help: "Current number of queues held in the task-queue index.",
		}),
	}
}

func registerCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return c
}

func registerHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Histogram)
		}
		panic(err)
	}
	return h
}

func registerGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	g := prometheus.NewGauge(opts)
	if err := prometheus.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Gauge)
		}
		panic(err)
	}
	return g
}

// RecordMatch records a successful requestJob outcome.
func (c *Collector) RecordMatch() { c.matches.Inc() }

// RecordNoMatch records an exhausted-scan/agent-miss outcome.
func (c *Collector) RecordNoMatch() { c.noMatches.Inc() }

// RecordEviction records n stale entries evicted in a single request.
func (c *Collector) RecordEviction(n int) {
	if n <= 0 {
		return
	}
	c.evictions.Add(float64(n))
}

// ObserveClaimDuration records the wall-clock time a claim attempt held
// the coordinator's lock.
func (c *Collector) ObserveClaimDuration(d time.Duration) {
	c.claimTime.Observe(d.Seconds())
}

// SetQueueDepth reflects the task-queue index's current size.
func (c *Collector) SetQueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

// StartServer starts the Prometheus metrics HTTP server at addr, e.g.
// ":9090".
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
