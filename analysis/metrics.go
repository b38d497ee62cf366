// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

// Names
const (
	RequestsCounter = "analysis_requests_total"
)

// Labels
const (
	TaskLabel    = "task"
	OutcomeLabel = "outcome"
)

// Label Values
const (
	SuccessOutcome  = "success"
	RejectedOutcome = "rejected"
	FailureOutcome  = "failure"
)

// ProvideMetrics returns the Metrics relevant to this package
func ProvideMetrics() fx.Option {
	return touchstone.CounterVec(
		prometheus.CounterOpts{
			Name: RequestsCounter,
			Help: "Counter for summarize and analyze calls by outcome.",
		},
		TaskLabel,
		OutcomeLabel,
	)
}

type Measures struct {
	fx.In
	Requests *prometheus.CounterVec `name:"analysis_requests_total"`
}
