// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package client

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsClient holds Prometheus metrics for the archive client.
type metricsClient struct {
	once sync.Once

	// Requests
	requests       prometheus.Counter
	requestErrors  prometheus.Counter
	retries        prometheus.Counter
	knownBatches   prometheus.Counter
	whereAreCalls  prometheus.Counter
	rateLimitSleep prometheus.Histogram
	requestSeconds prometheus.Histogram
}

var cliMetrics metricsClient

func (m *metricsClient) init() {
	m.once.Do(func() {
		m.requests = prometheus.NewCounter(prometheus.CounterOpts{Name: "swh_scanner_client_requests_total", Help: "HTTP requests issued to the archive"})
		m.requestErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "swh_scanner_client_request_errors_total", Help: "HTTP requests that ended in a non-success reply or transport error"})
		m.retries = prometheus.NewCounter(prometheus.CounterOpts{Name: "swh_scanner_client_retries_total", Help: "Request retries after transient failures"})
		m.knownBatches = prometheus.NewCounter(prometheus.CounterOpts{Name: "swh_scanner_client_known_batches_total", Help: "Batches sent to the known endpoint"})
		m.whereAreCalls = prometheus.NewCounter(prometheus.CounterOpts{Name: "swh_scanner_client_whereare_batches_total", Help: "Batches sent to the provenance whereare endpoint"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
		m.rateLimitSleep = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "swh_scanner_client_ratelimit_sleep_seconds", Help: "Self-throttling waits before requests", Buckets: buckets})
		m.requestSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "swh_scanner_client_request_seconds", Help: "Archive request round-trip time", Buckets: buckets})

		prometheus.MustRegister(
			m.requests, m.requestErrors, m.retries,
			m.knownBatches, m.whereAreCalls,
			m.rateLimitSleep, m.requestSeconds,
		)
	})
}

// record helpers - used by the client and rate limiter
func recordRequest(d time.Duration) {
	cliMetrics.init()
	cliMetrics.requests.Inc()
	cliMetrics.requestSeconds.Observe(d.Seconds())
}
func recordRequestError() { cliMetrics.init(); cliMetrics.requestErrors.Inc() }
func recordRetry()        { cliMetrics.init(); cliMetrics.retries.Inc() }
func recordKnownBatch()   { cliMetrics.init(); cliMetrics.knownBatches.Inc() }
func recordWhereAre()     { cliMetrics.init(); cliMetrics.whereAreCalls.Inc() }
func observeRateLimitSleep(d time.Duration) {
	cliMetrics.init()
	cliMetrics.rateLimitSleep.Observe(d.Seconds())
}
