// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package inmem

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/xmidt-org/logscope/cache"
)

type testValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type InMemTestSuite struct {
	suite.Suite
	Now   time.Time
	InMem *InMem
	Ctx   context.Context
}

func (s *InMemTestSuite) SetupTest() {
	s.Now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.InMem = NewInMemWithClock(func() time.Time { return s.Now })
	s.Ctx = context.Background()
}

func (s *InMemTestSuite) advance(d time.Duration) {
	s.Now = s.Now.Add(d)
}

func (s *InMemTestSuite) TestGetMissing() {
	var v testValue
	ok, err := s.InMem.Get(s.Ctx, "missing", &v)
	s.NoError(err)
	s.False(ok)
}

func (s *InMemTestSuite) TestSetGet() {
	s.Require().NoError(s.InMem.Set(s.Ctx, "k", testValue{Name: "a", Count: 2}, time.Minute))

	var v testValue
	ok, err := s.InMem.Get(s.Ctx, "k", &v)
	s.NoError(err)
	s.True(ok)
	s.Equal(testValue{Name: "a", Count: 2}, v)
}

func (s *InMemTestSuite) TestExpiry() {
	s.Require().NoError(s.InMem.Set(s.Ctx, "k", "value", 30*time.Second))

	var v string
	s.advance(29 * time.Second)
	ok, err := s.InMem.Get(s.Ctx, "k", &v)
	s.NoError(err)
	s.True(ok)

	s.advance(time.Second)
	ok, err = s.InMem.Get(s.Ctx, "k", &v)
	s.NoError(err)
	s.False(ok)
	s.Equal(0, s.InMem.Len())
}

func (s *InMemTestSuite) TestLastWriteWins() {
	s.Require().NoError(s.InMem.Set(s.Ctx, "k", "first", time.Minute))
	s.Require().NoError(s.InMem.Set(s.Ctx, "k", "second", time.Minute))

	var v string
	ok, err := s.InMem.Get(s.Ctx, "k", &v)
	s.NoError(err)
	s.True(ok)
	s.Equal("second", v)
}

func (s *InMemTestSuite) TestValuesAreCopied() {
	original := []string{"a", "b"}
	s.Require().NoError(s.InMem.Set(s.Ctx, "k", original, time.Minute))
	original[0] = "changed"

	var v []string
	_, err := s.InMem.Get(s.Ctx, "k", &v)
	s.NoError(err)
	s.Equal([]string{"a", "b"}, v)
}

func (s *InMemTestSuite) TestNumbersKeepPrecision() {
	s.Require().NoError(s.InMem.Set(s.Ctx, "k", map[string]interface{}{"build": json.Number("12345678901234567891")}, time.Minute))

	var v map[string]interface{}
	ok, err := s.InMem.Get(s.Ctx, "k", &v)
	s.NoError(err)
	s.True(ok)
	s.Equal(json.Number("12345678901234567891"), v["build"])
}

func (s *InMemTestSuite) TestDecodeError() {
	s.Require().NoError(s.InMem.Set(s.Ctx, "k", "text", time.Minute))

	var v int
	ok, err := s.InMem.Get(s.Ctx, "k", &v)
	s.True(ok)
	s.True(errors.Is(err, cache.ErrDecode))
}

func (s *InMemTestSuite) TestEncodeError() {
	err := s.InMem.Set(s.Ctx, "k", make(chan int), time.Minute)
	s.True(errors.Is(err, cache.ErrEncode))
}

func (s *InMemTestSuite) TestSweep() {
	s.Require().NoError(s.InMem.Set(s.Ctx, "short", 1, time.Second))
	s.Require().NoError(s.InMem.Set(s.Ctx, "long", 2, time.Hour))
	s.advance(time.Minute)

	s.Equal(1, s.InMem.Sweep())
	s.Equal(1, s.InMem.Len())
}

func TestInMem(t *testing.T) {
	suite.Run(t, new(InMemTestSuite))
}
