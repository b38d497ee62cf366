// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/logscope/cache"
	"github.com/xmidt-org/logscope/cache/inmem"
	"github.com/xmidt-org/logscope/cache/metric"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string, value interface{}) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(key, ttl)
	return args.Error(0)
}

func TestInstrumentingCache(t *testing.T) {
	assert := assert.New(t)
	measures := metric.NewMeasures()
	m := new(mockCache)
	m.On("Get", "hit").Return(true, nil)
	m.On("Get", "miss").Return(false, nil)
	m.On("Get", "broken").Return(false, errors.New("boom"))
	m.On("Set", "k", time.Minute).Return(nil)

	c := newInstrumentingCache("test", m, measures, zap.NewNop())
	ctx := context.Background()
	var v string
	_, _ = c.Get(ctx, "hit", &v)
	_, _ = c.Get(ctx, "miss", &v)
	_, _ = c.Get(ctx, "miss", &v)
	_, err := c.Get(ctx, "broken", &v)
	assert.Error(err)
	assert.NoError(c.Set(ctx, "k", "v", time.Minute))
	assert.NoError(cache.Ping(ctx, c))

	assert.Equal(1.0, testutil.ToFloat64(measures.Operations.WithLabelValues("test", cache.ReadType, cache.HitOutcome)))
	assert.Equal(2.0, testutil.ToFloat64(measures.Operations.WithLabelValues("test", cache.ReadType, cache.MissOutcome)))
	assert.Equal(1.0, testutil.ToFloat64(measures.Operations.WithLabelValues("test", cache.ReadType, cache.FailureOutcome)))
	assert.Equal(1.0, testutil.ToFloat64(measures.Operations.WithLabelValues("test", cache.WriteType, cache.SuccessOutcome)))
	assert.Equal(1.0, testutil.ToFloat64(measures.Operations.WithLabelValues("test", cache.PingType, cache.SuccessOutcome)))
}

func TestSetupCacheDefaultsToInMem(t *testing.T) {
	require := require.New(t)
	lc := fxtest.NewLifecycle(t)
	c, err := SetupCache(SetupIn{
		Measures: metric.NewMeasures(),
		LC:       lc,
		Logger:   zap.NewNop(),
	})
	require.NoError(err)

	ic, ok := c.(*instrumentingCache)
	require.True(ok)
	assert.Equal(t, InMem, ic.backend)
	_, ok = ic.Cache.(*inmem.InMem)
	assert.True(t, ok)

	lc.RequireStart()
	lc.RequireStop()
}
