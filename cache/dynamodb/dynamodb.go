// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/xmidt-org/logscope/cache"
)

const (
	defaultTable      = "logscope"
	defaultMaxRetries = 3
	defaultRegion     = "us-east-1"
)

// Dynamo DB attribute keys
const (
	keyAttributeKey        = "key"
	valueAttributeKey      = "value"
	expirationAttributeKey = "expires"
)

var (
	ErrOperationFailed = errors.New("dynamodb operation failed")
	ErrMarshal         = errors.New("failed marshaling dynamodb item")
)

type Config struct {
	Table      string
	Endpoint   string
	Region     string
	MaxRetries int
	AccessKey  string
	SecretKey  string
}

// client captures the methods of interest from the dynamoDB API. This
// should help mock API calls as well.
type client interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type storableItem struct {
	Key     string `dynamodbav:"key"`
	Value   []byte `dynamodbav:"value"`
	Expires int64  `dynamodbav:"expires"`
}

// DynamoDB is a cache backed by a DynamoDB table whose partition key is
// "key". The table's TTL attribute should be set to "expires"; since
// DynamoDB deletes expired rows lazily, expired rows are also treated as
// misses on read.
type DynamoDB struct {
	c         client
	tableName string
	now       func() time.Time
}

func NewDynamoDB(ctx context.Context, config Config) (*DynamoDB, error) {
	validateConfig(&config)

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(config.Region),
		awsconfig.WithRetryMaxAttempts(config.MaxRetries),
	}
	if config.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	c := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
	})

	return &DynamoDB{
		c:         c,
		tableName: config.Table,
		now:       time.Now,
	}, nil
}

func (d *DynamoDB) Get(ctx context.Context, key string, value interface{}) (bool, error) {
	out, err := d.c.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			keyAttributeKey: &types.AttributeValueMemberS{Value: key},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}
	if out == nil || len(out.Item) == 0 {
		return false, nil
	}

	var item storableItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMarshal, err)
	}

	if d.now().Unix() >= item.Expires {
		return false, nil
	}

	return true, cache.Decode(item.Value, value)
}

func (d *DynamoDB) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := cache.Encode(value)
	if err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(storableItem{
		Key:     key,
		Value:   data,
		Expires: d.now().Add(ttl).Unix(),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarshal, err)
	}

	_, err = d.c.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}
	return nil
}

// Ping verifies the table is reachable.
func (d *DynamoDB) Ping(ctx context.Context) error {
	_, err := d.c.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}
	return nil
}

func validateConfig(config *Config) {
	if config.Table == "" {
		config.Table = defaultTable
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = defaultMaxRetries
	}
	if config.Region == "" {
		config.Region = defaultRegion
	}
}
