// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/xmidt-org/logscope/cache"
)

type expireableItem struct {
	data       []byte
	expiration time.Time
}

type InMem struct {
	data map[string]expireableItem
	lock sync.Mutex
	now  func() time.Time
}

func NewInMem() *InMem {
	return &InMem{
		data: map[string]expireableItem{},
		now:  time.Now,
	}
}

// NewInMemWithClock is NewInMem with an injected clock.
func NewInMemWithClock(now func() time.Time) *InMem {
	i := NewInMem()
	if now != nil {
		i.now = now
	}
	return i
}

func (i *InMem) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := cache.Encode(value)
	if err != nil {
		return err
	}

	i.lock.Lock()
	defer i.lock.Unlock()
	i.data[key] = expireableItem{
		data:       data,
		expiration: i.now().Add(ttl),
	}
	return nil
}

func (i *InMem) Get(_ context.Context, key string, value interface{}) (bool, error) {
	i.lock.Lock()
	item, ok := i.data[key]
	if ok && i.hasExpired(item) {
		delete(i.data, key)
		ok = false
	}
	i.lock.Unlock()

	if !ok {
		return false, nil
	}
	return true, cache.Decode(item.data, value)
}

// hasExpired must be called with the lock held.
func (i *InMem) hasExpired(item expireableItem) bool {
	return !i.now().Before(item.expiration)
}

// Sweep drops every expired entry and returns how many were removed.
func (i *InMem) Sweep() int {
	i.lock.Lock()
	defer i.lock.Unlock()
	removed := 0
	for k, item := range i.data {
		if i.hasExpired(item) {
			delete(i.data, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, expired or not.
func (i *InMem) Len() int {
	i.lock.Lock()
	defer i.lock.Unlock()
	return len(i.data)
}

// SweepEvery runs Sweep on an interval until the returned stop function is
// called.
func (i *InMem) SweepEvery(d time.Duration) (stop func()) {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				i.Sweep()
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}
