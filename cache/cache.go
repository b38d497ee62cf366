// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// TypeLabel is for labeling metrics; if there is a single metric for
	// successful operations, the TypeLabel and corresponding type can be used
	// when incrementing the metric.
	TypeLabel    = "type"
	BackendLabel = "backend"
	OutcomeLabel = "outcome"

	ReadType  = "read"
	WriteType = "write"
	PingType  = "ping"

	HitOutcome     = "hit"
	MissOutcome    = "miss"
	SuccessOutcome = "success"
	FailureOutcome = "failure"
)

var (
	ErrEncode = errors.New("failed encoding cache value")
	ErrDecode = errors.New("failed decoding cache value")
)

// Cache is a TTL keyed store shared by every component. Keys are namespaced
// by prefix. Entries expire by TTL only and concurrent writers to the same
// key are last-write-wins.
type Cache interface {
	// Get decodes the value stored under key into value. It reports false
	// when the key is absent or expired.
	Get(ctx context.Context, key string, value interface{}) (bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Pinger is implemented by backends that can report their reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Encode serializes a value the same way for every backend so that callers
// never share memory with a cached entry.
func Encode(value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return data, nil
}

// Decode is the inverse of Encode. Numbers decoded into interface values
// stay json.Number, so integers survive the round trip unchanged.
func Decode(data []byte, value interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// Ping checks c when it supports it. Backends without a Pinger are always
// reachable.
func Ping(ctx context.Context, c Cache) error {
	if p, ok := c.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
