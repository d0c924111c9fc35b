// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics defines the Prometheus collectors exported by the
// warden. A nil *Metrics is valid and records nothing, so packages can
// accept one without forcing tests to build a registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "warden"

// Metrics groups every collector the warden records into.
type Metrics struct {
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	links           *prometheus.CounterVec
	compensations   *prometheus.CounterVec
	redactions      prometheus.Counter
	syncFailures    prometheus.Counter
	matrixRequests  *prometheus.CounterVec
	matrixLatency   *prometheus.HistogramVec
}

// New creates the collectors and registers them with registerer.
func New(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Admin commands handled, by command and outcome.",
		}, []string{"command", "outcome"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Time spent handling an admin command.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"command"}),
		links: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "space_link_operations_total",
			Help:      "Space link and unlink attempts, by direction and outcome.",
		}, []string{"direction", "outcome"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "space_link_compensations_total",
			Help:      "Compensating writes after a partial link failure, by outcome.",
		}, []string{"outcome"}),
		redactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purge_redactions_total",
			Help:      "Events redacted by the purge command.",
		}),
		syncFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_failures_total",
			Help:      "Failed /sync requests.",
		}),
		matrixRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matrix_requests_total",
			Help:      "HTTP requests to the homeserver, by method and status code.",
		}, []string{"method", "code"}),
		matrixLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "matrix_request_duration_seconds",
			Help:      "Latency of HTTP requests to the homeserver.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	registerer.MustRegister(
		m.commands,
		m.commandDuration,
		m.links,
		m.compensations,
		m.redactions,
		m.syncFailures,
		m.matrixRequests,
		m.matrixLatency,
	)
	return m
}

// ObserveCommand records one handled command.
func (m *Metrics) ObserveCommand(command, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, outcome).Inc()
	m.commandDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// ObserveLink records one link or unlink attempt.
func (m *Metrics) ObserveLink(direction, outcome string) {
	if m == nil {
		return
	}
	m.links.WithLabelValues(direction, outcome).Inc()
}

// ObserveCompensation records one compensating write.
func (m *Metrics) ObserveCompensation(succeeded bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !succeeded {
		outcome = "failed"
	}
	m.compensations.WithLabelValues(outcome).Inc()
}

// ObserveRedaction records one purge redaction.
func (m *Metrics) ObserveRedaction() {
	if m == nil {
		return
	}
	m.redactions.Inc()
}

// ObserveSyncFailure records one failed /sync.
func (m *Metrics) ObserveSyncFailure() {
	if m == nil {
		return
	}
	m.syncFailures.Inc()
}

// InstrumentTransport wraps an HTTP transport so that every homeserver
// request is counted and timed. Returns next unchanged on a nil
// receiver.
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if m == nil {
		return next
	}
	return promhttp.InstrumentRoundTripperCounter(m.matrixRequests,
		promhttp.InstrumentRoundTripperDuration(m.matrixLatency, next))
}

// Handler serves the metrics of gatherer in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
