// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides metrics and instrumentation for the chemist
// service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring optimization
// runs. Metrics include:
//   - Request counters (by endpoint, status, error type)
//   - Attempt histograms (design attempts consumed per job)
//   - Latency histograms (designer inference, total job duration)
//   - Active job gauges
//
// # Integration
//
// Metrics are exposed via /metrics endpoint. Use with Prometheus + Grafana
// for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "aleutianchem"

// Subsystem for optimization metrics
const optimizeSubsystem = "optimize"

// OptimizeMetrics holds all Prometheus metrics for optimization runs.
//
// # Description
//
// Provides counters, histograms, and gauges for monitoring search loop
// performance and resource usage. Initialize once at startup via
// InitMetrics().
//
// # Fields
//
//   - RequestsTotal: Counter of requests by endpoint and status
//   - AttemptsPerJob: Histogram of design attempts consumed per run
//   - DesignerLatencySeconds: Histogram of one designer inference
//   - JobDurationSeconds: Histogram of total run duration
//   - ActiveJobs: Gauge of currently running optimization jobs
//   - ErrorsTotal: Counter of errors by type and endpoint
//
// # Thread Safety
//
// All operations are thread-safe.
type OptimizeMetrics struct {
	// RequestsTotal counts requests by endpoint and status.
	// Labels: endpoint (optimize, score), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// AttemptsPerJob measures design attempts consumed per run.
	// Labels: status (Success, Failure)
	AttemptsPerJob *prometheus.HistogramVec

	// DesignerLatencySeconds measures one designer model inference.
	DesignerLatencySeconds prometheus.Histogram

	// JobDurationSeconds measures total run duration.
	// Labels: status (Success, Failure, abandoned)
	JobDurationSeconds *prometheus.HistogramVec

	// ActiveJobs tracks currently running optimization jobs.
	ActiveJobs prometheus.Gauge

	// ErrorsTotal counts errors by type and endpoint.
	// Labels: endpoint, error_code (validation, llm_error, oracle_error, ...)
	ErrorsTotal *prometheus.CounterVec

	// KeepAlivesTotal counts keepalive pings sent on optimize streams.
	KeepAlivesTotal prometheus.Counter

	// ClientDisconnectsTotal counts client disconnections mid-run.
	ClientDisconnectsTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance of OptimizeMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *OptimizeMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup, after Prometheus registry is available.
//
// # Outputs
//
//   - *OptimizeMetrics: The initialized metrics instance.
//
// # Examples
//
//	func main() {
//	    observability.InitMetrics()
//	    // ... start server ...
//	}
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
//
// # Assumptions
//
//   - Prometheus default registry is available.
func InitMetrics() *OptimizeMetrics {
	DefaultMetrics = &OptimizeMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: optimizeSubsystem,
				Name:      "requests_total",
				Help:      "Total number of requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		AttemptsPerJob: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: optimizeSubsystem,
				Name:      "attempts_per_job",
				Help:      "Design attempts consumed per optimization run",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 25},
			},
			[]string{"status"},
		),

		DesignerLatencySeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: optimizeSubsystem,
				Name:      "designer_latency_seconds",
				Help:      "Latency of one designer model inference in seconds",
				Buckets:   []float64{0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0},
			},
		),

		JobDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: optimizeSubsystem,
				Name:      "job_duration_seconds",
				Help:      "Total optimization run duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"status"},
		),

		ActiveJobs: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: optimizeSubsystem,
				Name:      "active_jobs",
				Help:      "Number of currently running optimization jobs",
			},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: optimizeSubsystem,
				Name:      "errors_total",
				Help:      "Total errors by type and endpoint",
			},
			[]string{"endpoint", "error_code"},
		),

		KeepAlivesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: optimizeSubsystem,
				Name:      "keepalives_total",
				Help:      "Total keepalive pings sent on optimize streams",
			},
		),

		ClientDisconnectsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: optimizeSubsystem,
				Name:      "client_disconnects_total",
				Help:      "Total client disconnections during optimization runs",
			},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Error Codes
// =============================================================================

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates request validation failure.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeLLMError indicates designer or narrator model failure.
	ErrorCodeLLMError ErrorCode = "llm_error"

	// ErrorCodeOracleError indicates descriptor sidecar failure.
	ErrorCodeOracleError ErrorCode = "oracle_error"

	// ErrorCodeTimeout indicates operation timeout.
	ErrorCodeTimeout ErrorCode = "timeout"

	// ErrorCodeInternal indicates internal server error.
	ErrorCodeInternal ErrorCode = "internal"

	// ErrorCodeClientDisconnect indicates client disconnected.
	ErrorCodeClientDisconnect ErrorCode = "client_disconnect"
)

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint represents an API endpoint for metrics labeling.
type Endpoint string

const (
	// EndpointOptimize is the streaming optimization endpoint.
	EndpointOptimize Endpoint = "optimize"

	// EndpointScore is the synchronous scoring endpoint.
	EndpointScore Endpoint = "score"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed request.
//
// # Inputs
//
//   - endpoint: The endpoint that handled the request.
//   - success: Whether the request completed successfully.
func (m *OptimizeMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordError records an error.
//
// # Inputs
//
//   - endpoint: The endpoint where the error occurred.
//   - code: The error type code.
func (m *OptimizeMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordAttempts records the design attempts a finished run consumed.
//
// # Inputs
//
//   - status: Terminal status of the run.
//   - attempts: Number of design attempts consumed.
func (m *OptimizeMetrics) RecordAttempts(status string, attempts int) {
	m.AttemptsPerJob.WithLabelValues(status).Observe(float64(attempts))
}

// JobStarted increments the active jobs gauge.
func (m *OptimizeMetrics) JobStarted() {
	m.ActiveJobs.Inc()
}

// JobEnded decrements the active jobs gauge.
func (m *OptimizeMetrics) JobEnded() {
	m.ActiveJobs.Dec()
}

// RecordJobDuration records the total run duration.
//
// # Inputs
//
//   - status: Terminal status of the run (Success, Failure, abandoned).
//   - seconds: Total duration in seconds.
func (m *OptimizeMetrics) RecordJobDuration(status string, seconds float64) {
	m.JobDurationSeconds.WithLabelValues(status).Observe(seconds)
}

// RecordDesignerLatency records one designer inference latency.
//
// # Inputs
//
//   - seconds: Inference latency in seconds.
func (m *OptimizeMetrics) RecordDesignerLatency(seconds float64) {
	m.DesignerLatencySeconds.Observe(seconds)
}

// RecordKeepAlive increments the keepalive counter.
func (m *OptimizeMetrics) RecordKeepAlive() {
	m.KeepAlivesTotal.Inc()
}

// RecordClientDisconnect increments the client disconnect counter.
func (m *OptimizeMetrics) RecordClientDisconnect() {
	m.ClientDisconnectsTotal.Inc()
}
