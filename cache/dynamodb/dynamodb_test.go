// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	errInternal = errors.New("internal dummy error")
	testNow     = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newTestDynamoDB(m *mockClient) *DynamoDB {
	return &DynamoDB{
		c:         m,
		tableName: "test-table",
		now:       func() time.Time { return testNow },
	}
}

func TestSet(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	m := new(mockClient)
	d := newTestDynamoDB(m)

	var captured *dynamodb.PutItemInput
	m.On("PutItem", mock.Anything, mock.AnythingOfType("*dynamodb.PutItemInput")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*dynamodb.PutItemInput)
		}).
		Return(&dynamodb.PutItemOutput{}, nil)

	err := d.Set(context.Background(), "pods_a_b_c", []string{"x"}, 2*time.Minute)
	require.NoError(err)
	require.NotNil(captured)
	assert.Equal("test-table", *captured.TableName)

	var item storableItem
	require.NoError(attributevalue.UnmarshalMap(captured.Item, &item))
	assert.Equal("pods_a_b_c", item.Key)
	assert.Equal(`["x"]`, string(item.Value))
	assert.Equal(testNow.Add(2*time.Minute).Unix(), item.Expires)
}

func TestSetFailure(t *testing.T) {
	m := new(mockClient)
	d := newTestDynamoDB(m)
	m.On("PutItem", mock.Anything, mock.Anything).Return(nil, errInternal)

	err := d.Set(context.Background(), "k", "v", time.Minute)
	assert.True(t, errors.Is(err, ErrOperationFailed))
}

func TestGet(t *testing.T) {
	tcs := []struct {
		Description   string
		Item          *storableItem
		GetErr        error
		ExpectedFound bool
		ExpectedValue string
		ExpectedErr   error
	}{
		{
			Description: "client failure",
			GetErr:      errInternal,
			ExpectedErr: ErrOperationFailed,
		},
		{
			Description: "missing",
		},
		{
			Description: "expired",
			Item: &storableItem{
				Key:     "k",
				Value:   []byte(`"stale"`),
				Expires: testNow.Add(-time.Second).Unix(),
			},
		},
		{
			Description: "found",
			Item: &storableItem{
				Key:     "k",
				Value:   []byte(`"fresh"`),
				Expires: testNow.Add(time.Minute).Unix(),
			},
			ExpectedFound: true,
			ExpectedValue: "fresh",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			m := new(mockClient)
			d := newTestDynamoDB(m)

			out := &dynamodb.GetItemOutput{}
			if tc.Item != nil {
				av, err := attributevalue.MarshalMap(tc.Item)
				require.NoError(err)
				out.Item = av
			}
			if tc.GetErr != nil {
				m.On("GetItem", mock.Anything, mock.Anything).Return(nil, tc.GetErr)
			} else {
				m.On("GetItem", mock.Anything, mock.Anything).Return(out, nil)
			}

			var value string
			found, err := d.Get(context.Background(), "k", &value)
			if tc.ExpectedErr != nil {
				assert.True(errors.Is(err, tc.ExpectedErr))
				return
			}
			require.NoError(err)
			assert.Equal(tc.ExpectedFound, found)
			assert.Equal(tc.ExpectedValue, value)
		})
	}
}

func TestPing(t *testing.T) {
	assert := assert.New(t)
	m := new(mockClient)
	d := newTestDynamoDB(m)
	m.On("DescribeTable", mock.Anything, mock.Anything).Return(&dynamodb.DescribeTableOutput{}, nil).Once()
	m.On("DescribeTable", mock.Anything, mock.Anything).Return(nil, errInternal).Once()

	assert.NoError(d.Ping(context.Background()))
	assert.True(errors.Is(d.Ping(context.Background()), ErrOperationFailed))
}

func TestValidateConfig(t *testing.T) {
	c := Config{}
	validateConfig(&c)
	assert.Equal(t, Config{Table: defaultTable, MaxRetries: defaultMaxRetries, Region: defaultRegion}, c)
}
