// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"time"

	"github.com/xmidt-org/logscope/cache"
	"github.com/xmidt-org/logscope/cache/metric"
	"go.uber.org/zap"
)

// instrumentingCache records metrics and debug logs around any backend.
type instrumentingCache struct {
	cache.Cache
	backend  string
	measures metric.Measures
	logger   *zap.Logger
}

func newInstrumentingCache(backend string, c cache.Cache, measures metric.Measures, logger *zap.Logger) cache.Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &instrumentingCache{Cache: c, backend: backend, measures: measures, logger: logger}
}

func (i *instrumentingCache) Get(ctx context.Context, key string, value interface{}) (found bool, err error) {
	start := time.Now()
	defer func() {
		outcome := cache.MissOutcome
		switch {
		case err != nil:
			outcome = cache.FailureOutcome
		case found:
			outcome = cache.HitOutcome
		}
		i.observe(cache.ReadType, outcome, start)
		i.logger.Debug("cache get", zap.String("key", key), zap.String("outcome", outcome), zap.Error(err))
	}()
	return i.Cache.Get(ctx, key, value)
}

func (i *instrumentingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) (err error) {
	start := time.Now()
	defer func() {
		outcome := cache.SuccessOutcome
		if err != nil {
			outcome = cache.FailureOutcome
		}
		i.observe(cache.WriteType, outcome, start)
		i.logger.Debug("cache set", zap.String("key", key), zap.Duration("ttl", ttl), zap.Error(err))
	}()
	return i.Cache.Set(ctx, key, value, ttl)
}

func (i *instrumentingCache) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		outcome := cache.SuccessOutcome
		if err != nil {
			outcome = cache.FailureOutcome
		}
		i.observe(cache.PingType, outcome, start)
	}()
	return cache.Ping(ctx, i.Cache)
}

func (i *instrumentingCache) observe(opType, outcome string, start time.Time) {
	if i.measures.Operations != nil {
		i.measures.Operations.WithLabelValues(i.backend, opType, outcome).Inc()
	}
	if i.measures.Duration != nil {
		i.measures.Duration.WithLabelValues(i.backend, opType).Observe(time.Since(start).Seconds())
	}
}
