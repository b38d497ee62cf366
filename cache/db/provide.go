// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"time"

	"github.com/spf13/viper"
	"github.com/xmidt-org/logscope/cache"
	"github.com/xmidt-org/logscope/cache/cassandra"
	"github.com/xmidt-org/logscope/cache/dynamodb"
	"github.com/xmidt-org/logscope/cache/inmem"
	"github.com/xmidt-org/logscope/cache/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Backend names, also used as metric label values.
const (
	InMem    = "inmem"
	DynamoDB = "dynamo"
	Yugabyte = "yugabyte"

	defaultSweepInterval = time.Minute
)

type Configs struct {
	Dynamo   *dynamodb.Config
	Yugabyte *cassandra.Config

	// SweepInterval is how often the in-memory backend drops expired entries.
	SweepInterval time.Duration
}

type SetupIn struct {
	fx.In
	Configs  Configs
	Measures metric.Measures
	LC       fx.Lifecycle
	Logger   *zap.Logger
}

func Provide() fx.Option {
	return fx.Options(
		metric.ProvideMetrics(),
		fx.Provide(
			func(v *viper.Viper) (Configs, error) {
				var c Configs
				err := v.UnmarshalKey("cache", &c)
				return c, err
			},
			SetupCache,
		),
	)
}

func SetupCache(in SetupIn) (cache.Cache, error) {
	if in.Configs.Dynamo != nil {
		in.Logger.Info("using dynamodb cache implementation")
		c, err := dynamodb.NewDynamoDB(context.Background(), *in.Configs.Dynamo)
		if err != nil {
			return nil, err
		}
		return newInstrumentingCache(DynamoDB, c, in.Measures, in.Logger), nil
	}
	if in.Configs.Yugabyte != nil {
		in.Logger.Info("using yugabyte cache implementation")
		c, err := cassandra.ProvideCassandra(*in.Configs.Yugabyte, in.LC, in.Logger)
		if err != nil {
			return nil, err
		}
		return newInstrumentingCache(Yugabyte, c, in.Measures, in.Logger), nil
	}

	in.Logger.Info("using in memory cache implementation")
	c := inmem.NewInMem()
	interval := in.Configs.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	var stop func()
	in.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			stop = c.SweepEvery(interval)
			return nil
		},
		OnStop: func(context.Context) error {
			if stop != nil {
				stop()
			}
			return nil
		},
	})
	return newInstrumentingCache(InMem, c, in.Measures, in.Logger), nil
}
