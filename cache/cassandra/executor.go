// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"
	"errors"
	"fmt"

	"github.com/gocql/gocql"
	"github.com/hailocab/go-hostpool"
)

type dbStore interface {
	get(ctx context.Context, key string) ([]byte, error)
	set(ctx context.Context, key string, data []byte, ttlSeconds int) error
	Close()
	Ping() error
}

var (
	errNoData       = errors.New("no data from query")
	errServerClosed = errors.New("server is closed")
)

type cassandraExecutor struct {
	session *gocql.Session
	table   string
}

func connect(clusterConfig *gocql.ClusterConfig, table string) (dbStore, error) {
	clusterConfig.PoolConfig.HostSelectionPolicy = gocql.HostPoolHostPolicy(hostpool.New(nil))
	session, err := clusterConfig.CreateSession()
	if err != nil {
		return nil, err
	}

	return &cassandraExecutor{session: session, table: table}, nil
}

func (s *cassandraExecutor) set(ctx context.Context, key string, data []byte, ttlSeconds int) error {
	q := fmt.Sprintf("INSERT INTO %s (key, value) VALUES (?, ?) USING TTL ?", s.table)
	return s.session.Query(q, key, data, ttlSeconds).WithContext(ctx).Exec()
}

func (s *cassandraExecutor) get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	q := fmt.Sprintf("SELECT value FROM %s WHERE key = ?", s.table)
	err := s.session.Query(q, key).WithContext(ctx).Scan(&data)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, errNoData
	}
	return data, err
}

func (s *cassandraExecutor) Close() {
	s.session.Close()
}

func (s *cassandraExecutor) Ping() error {
	if s.session.Closed() {
		return errServerClosed
	}
	return nil
}
