// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package cassandra

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockDbStore struct {
	mock.Mock
}

func (s *mockDbStore) get(ctx context.Context, key string) ([]byte, error) {
	args := s.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (s *mockDbStore) set(ctx context.Context, key string, data []byte, ttlSeconds int) error {
	args := s.Called(key, data, ttlSeconds)
	return args.Error(0)
}

func (s *mockDbStore) Close() {
	s.Called()
}

func (s *mockDbStore) Ping() error {
	args := s.Called()
	return args.Error(0)
}
