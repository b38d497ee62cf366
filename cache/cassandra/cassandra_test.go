// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/logscope/cache"
	"go.uber.org/zap"
)

var errDummy = errors.New("dummy error")

func TestGet(t *testing.T) {
	tcs := []struct {
		Description   string
		Data          []byte
		GetErr        error
		ExpectedFound bool
		ExpectedValue string
		ExpectedErr   error
	}{
		{
			Description: "no data",
			GetErr:      errNoData,
		},
		{
			Description: "query failure",
			GetErr:      errDummy,
			ExpectedErr: errDummy,
		},
		{
			Description: "corrupt value",
			Data:        []byte("{"),
			ExpectedErr: cache.ErrDecode,
			// a row existed even though it can't be decoded
			ExpectedFound: true,
		},
		{
			Description:   "found",
			Data:          []byte(`"hello"`),
			ExpectedFound: true,
			ExpectedValue: "hello",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			m := new(mockDbStore)
			m.On("get", "k").Return(tc.Data, tc.GetErr)
			c := Cassandra{client: m, logger: zap.NewNop()}

			var value string
			found, err := c.Get(context.Background(), "k", &value)
			if tc.ExpectedErr != nil {
				assert.True(errors.Is(err, tc.ExpectedErr))
			} else {
				assert.NoError(err)
			}
			assert.Equal(tc.ExpectedFound, found)
			assert.Equal(tc.ExpectedValue, value)
		})
	}
}

func TestSet(t *testing.T) {
	require := require.New(t)
	m := new(mockDbStore)
	m.On("set", "k", []byte(`{"a":1}`), 30).Return(nil).Once()
	m.On("set", "short", []byte(`1`), 1).Return(errDummy).Once()
	c := Cassandra{client: m, logger: zap.NewNop()}

	require.NoError(c.Set(context.Background(), "k", map[string]int{"a": 1}, 30*time.Second))
	require.ErrorIs(c.Set(context.Background(), "short", 1, 10*time.Millisecond), errDummy)
	m.AssertExpectations(t)
}

func TestPing(t *testing.T) {
	m := new(mockDbStore)
	m.On("Ping").Return(errServerClosed)
	c := Cassandra{client: m}
	assert.ErrorIs(t, c.Ping(context.Background()), errServerClosed)
}

func TestCreateCassandraClientValidation(t *testing.T) {
	_, err := CreateCassandraClient(Config{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoHosts)

	_, err = CreateCassandraClient(Config{Hosts: []string{"localhost"}, Table: "cache; DROP"}, zap.NewNop())
	assert.ErrorIs(t, err, ErrInvalidTableName)
}

func TestValidateConfig(t *testing.T) {
	c := Config{NumRetries: -1}
	validateConfig(&c)
	assert.Equal(t, Config{
		OpTimeout:       defaultOpTimeout,
		Database:        defaultDatabase,
		Table:           defaultTable,
		NumRetries:      defaultNumRetries,
		WaitTimeMult:    defaultWaitTimeMult,
		MaxConnsPerHost: defaultMaxNumberConnsPerHost,
	}, c)
}
