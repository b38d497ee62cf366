// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/gocql/gocql"
	"github.com/xmidt-org/logscope/cache"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultOpTimeout             = time.Duration(10) * time.Second
	defaultDatabase              = "logscope"
	defaultTable                 = "cache"
	defaultNumRetries            = 0
	defaultWaitTimeMult          = 1
	defaultMaxNumberConnsPerHost = 2
	pingInterval                 = 5 * time.Second
)

var (
	ErrNoHosts          = errors.New("number of hosts must be > 0")
	ErrInvalidTableName = errors.New("invalid table name")

	tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Config holds the Cassandra/YugabyteDB connection settings. The table must
// have the schema (key text PRIMARY KEY, value blob).
type Config struct {
	// Hosts to  connect to. Must have at least one
	Hosts []string

	// Database aka Keyspace for cassandra
	Database string

	// Table holding the cache entries.
	Table string

	// OpTimeout
	OpTimeout time.Duration

	// SSLRootCert used for enabling tls to the cluster. SSLKey, and SSLCert must also be set.
	SSLRootCert string
	// SSLKey used for enabling tls to the cluster. SSLRootCert, and SSLCert must also be set.
	SSLKey string
	// SSLCert used for enabling tls to the cluster. SSLRootCert, and SSLRootCert must also be set.
	SSLCert string
	// If you want to verify the hostname and server cert (like a wildcard for cass cluster) then you should turn this on
	EnableHostVerification bool

	// Username to authenticate into the cluster. Password must also be provided.
	Username string
	// Password to authenticate into the cluster. Username must also be provided.
	Password string

	// NumRetries for connecting to the db
	NumRetries int

	// WaitTimeMult the amount of time to wait before retrying to connect to the db
	WaitTimeMult time.Duration

	// MaxConnsPerHost max number of connections per host
	MaxConnsPerHost int
}

type Cassandra struct {
	client dbStore
	config Config
	logger *zap.Logger
}

// ProvideCassandra connects and ties the session to the fx lifecycle.
func ProvideCassandra(config Config, lc fx.Lifecycle, logger *zap.Logger) (*Cassandra, error) {
	client, err := CreateCassandraClient(config, logger)
	if err != nil {
		return nil, err
	}
	ticker := doEvery(pingInterval, func(_ time.Time) {
		if err := client.Ping(context.Background()); err != nil {
			logger.Error("ping failed", zap.Error(err))
		}
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			ticker.Stop()
			client.Close()
			return nil
		},
	})
	return client, nil
}

func doEvery(d time.Duration, f func(time.Time)) *time.Ticker {
	ticker := time.NewTicker(d)
	go func() {
		for x := range ticker.C {
			f(x)
		}
	}()
	return ticker
}

func CreateCassandraClient(config Config, logger *zap.Logger) (*Cassandra, error) {
	if len(config.Hosts) == 0 {
		return nil, ErrNoHosts
	}

	validateConfig(&config)
	if !tableNamePattern.MatchString(config.Table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, config.Table)
	}

	clusterConfig := gocql.NewCluster(config.Hosts...)
	clusterConfig.Consistency = gocql.LocalQuorum
	clusterConfig.Keyspace = config.Database
	clusterConfig.Timeout = config.OpTimeout
	clusterConfig.NumConns = config.MaxConnsPerHost
	clusterConfig.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: 1}
	if config.SSLRootCert != "" && config.SSLCert != "" && config.SSLKey != "" {
		clusterConfig.SslOpts = &gocql.SslOptions{
			CertPath:               config.SSLCert,
			KeyPath:                config.SSLKey,
			CaPath:                 config.SSLRootCert,
			EnableHostVerification: config.EnableHostVerification,
		}
	}
	if config.Username != "" && config.Password != "" {
		clusterConfig.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	session, err := connect(clusterConfig, config.Table)

	// retry if it fails
	waitTime := 1 * time.Second
	for attempt := 0; attempt < config.NumRetries && err != nil; attempt++ {
		time.Sleep(waitTime)
		session, err = connect(clusterConfig, config.Table)
		waitTime = waitTime * config.WaitTimeMult
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to database failed (hosts %v): %w", config.Hosts, err)
	}

	return &Cassandra{
		client: session,
		config: config,
		logger: logger,
	}, nil
}

func (s *Cassandra) Get(ctx context.Context, key string, value interface{}) (bool, error) {
	data, err := s.client.get(ctx, key)
	if errors.Is(err, errNoData) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, cache.Decode(data, value)
}

func (s *Cassandra) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := cache.Encode(value)
	if err != nil {
		return err
	}
	return s.client.set(ctx, key, data, ttlSeconds(ttl))
}

// ttlSeconds rounds up so that a sub-second TTL does not become "no TTL".
func ttlSeconds(ttl time.Duration) int {
	secs := int(math.Ceil(ttl.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

func (s *Cassandra) Close() {
	s.client.Close()
}

// Ping is for pinging the database to verify that the connection is still good.
func (s *Cassandra) Ping(_ context.Context) error {
	if err := s.client.Ping(); err != nil {
		return fmt.Errorf("pinging connection failed: %w", err)
	}
	return nil
}

func validateConfig(config *Config) {
	if config.OpTimeout == 0 {
		config.OpTimeout = defaultOpTimeout
	}
	if config.Database == "" {
		config.Database = defaultDatabase
	}
	if config.Table == "" {
		config.Table = defaultTable
	}
	if config.NumRetries < 0 {
		config.NumRetries = defaultNumRetries
	}
	if config.WaitTimeMult < 1 {
		config.WaitTimeMult = defaultWaitTimeMult
	}
	if config.MaxConnsPerHost <= 0 {
		config.MaxConnsPerHost = defaultMaxNumberConnsPerHost
	}
}
