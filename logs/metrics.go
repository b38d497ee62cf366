// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/touchstone"
	"go.uber.org/fx"
)

const (
	ResolutionsCounter = "log_resolutions_total"
	SourceLabel        = "source"
)

func ProvideMetrics() fx.Option {
	return touchstone.CounterVec(
		prometheus.CounterOpts{
			Name: ResolutionsCounter,
			Help: "The total number of pod log resolutions by the source that answered.",
		},
		SourceLabel,
	)
}

type Measures struct {
	fx.In
	Resolutions *prometheus.CounterVec `name:"log_resolutions_total"`
}
