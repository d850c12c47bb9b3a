//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

package remote

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of the attempts counter.
const (
	outcomeSuccess   = "success"
	outcomeRetryable = "retryable"
	outcomeTerminal  = "terminal"
	outcomeCanceled  = "canceled"
)

// Kind labels of the retries counter.
const (
	retryKindStatus  = "status"
	retryKindConnect = "connect"
	retryKindRead    = "read"
)

// clientMetrics holds the Prometheus collectors of a Connection.
type clientMetrics struct {
	attempts *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newClientMetrics creates the collectors and registers them with reg if it
// is not nil. Connections sharing a registerer share the collectors.
func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lancedb_client_attempts_total",
			Help: "Total number of HTTP attempts by outcome",
		}, []string{"outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lancedb_client_retries_total",
			Help: "Total number of retries by kind of failure",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lancedb_client_request_duration_seconds",
			Help:    "Duration of logical requests in seconds, including retries",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.attempts, err = register(reg, m.attempts); err != nil {
		return nil, err
	}
	if m.retries, err = register(reg, m.retries); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c with reg, returning the collector registered before
// if there is one.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

func (m *clientMetrics) observeAttempt(outcome string) {
	m.attempts.WithLabelValues(outcome).Inc()
}

func (m *clientMetrics) observeRetry(kind string) {
	m.retries.WithLabelValues(kind).Inc()
}

func (m *clientMetrics) observeDuration(op string, d time.Duration) {
	m.duration.WithLabelValues(op).Observe(d.Seconds())
}
