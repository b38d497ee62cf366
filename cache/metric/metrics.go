// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/logscope/cache"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	OperationsCounter        = "cache_operations_total"
	OperationDurationSeconds = "cache_operation_duration_seconds"
)

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return fx.Options(
		touchstone.CounterVec(
			prometheus.CounterOpts{
				Name: OperationsCounter,
				Help: "The total number of cache operations by backend, type and outcome.",
			},
			cache.BackendLabel,
			cache.TypeLabel,
			cache.OutcomeLabel,
		),
		touchstone.HistogramVec(
			prometheus.HistogramOpts{
				Name:    OperationDurationSeconds,
				Help:    "A histogram of latencies for cache operations.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, .25, .5, 1, 5},
			},
			cache.BackendLabel,
			cache.TypeLabel,
		),
	)
}

type Measures struct {
	fx.In
	Operations *prometheus.CounterVec   `name:"cache_operations_total"`
	Duration   *prometheus.HistogramVec `name:"cache_operation_duration_seconds"`
}

// NewMeasures builds unregistered collectors. It's useful for tests and for
// callers that don't run inside the fx container.
func NewMeasures() Measures {
	return Measures{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{Name: OperationsCounter},
			[]string{cache.BackendLabel, cache.TypeLabel, cache.OutcomeLabel}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: OperationDurationSeconds},
			[]string{cache.BackendLabel, cache.TypeLabel}),
	}
}
