// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package downloads

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
	"github.com/xmidt-org/logscope/cache"
	"github.com/xmidt-org/logscope/model"
	"go.uber.org/zap"
)

const (
	// MaxRecent is how many events are kept per client.
	MaxRecent = 10

	// MaxRecentInStats is how many of those Stats reports.
	MaxRecentInStats = 5

	dateLayout = "2006-01-02"
)

var ErrTrackingFailed = errors.New("failed to record download")

// Stats is the download summary for one client.
type Stats struct {
	RecentDownloads []model.DownloadEvent `json:"recent_downloads"`
	DownloadsToday  int64                 `json:"downloads_today"`
	TotalDownloads  int64                 `json:"total_downloads"`
	Timestamp       time.Time             `json:"timestamp"`
}

// Tracker records download events in the cache.
type Tracker struct {
	cache  cache.Cache
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

func NewTracker(c cache.Cache, now func() time.Time, logger *zap.Logger) *Tracker {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{cache: c, now: now, newID: uuid.NewString, logger: logger}
}

// Track stores e at the front of its client's recent list and bumps the
// daily and running counters. Only Filename is required.
func (t *Tracker) Track(ctx context.Context, e model.DownloadEvent) (string, error) {
	if err := model.RequireIdentifiers(model.Field{Name: "filename", Value: e.Filename}); err != nil {
		return "", err
	}

	e.Filename = strings.TrimSpace(e.Filename)
	e.Application = orUnknown(e.Application)
	e.Cluster = orUnknown(e.Cluster)
	e.Bundle = orUnknown(e.Bundle)
	e.Pod = orUnknown(e.Pod)
	e.ClientIP = orUnknown(e.ClientIP)
	e.UserAgent = orUnknown(e.UserAgent)
	if e.SizeBytes < 0 {
		e.SizeBytes = 0
	}
	now := t.now().UTC()
	e.Timestamp = now
	e.ID = t.newID()

	logger := t.logger.With(zap.String("download_id", e.ID), zap.String("client_ip", e.ClientIP))

	key := cache.RecentDownloadsKey(model.Sanitize(e.ClientIP))
	var recent []model.DownloadEvent
	if _, err := t.cache.Get(ctx, key, &recent); err != nil {
		logger.Warn("unreadable recent downloads, starting over", zap.Error(err))
		recent = nil
	}
	recent = append([]model.DownloadEvent{e}, recent...)
	if len(recent) > MaxRecent {
		recent = recent[:MaxRecent]
	}
	if err := t.cache.Set(ctx, key, recent, cache.RecentDownloadsTTL); err != nil {
		return "", fmt.Errorf("%w: %s", ErrTrackingFailed, err)
	}

	for _, counter := range []string{cache.DownloadsKey(now.Format(dateLayout)), cache.TotalDownloadsKey} {
		if err := t.increment(ctx, counter); err != nil {
			return "", fmt.Errorf("%w: %s", ErrTrackingFailed, err)
		}
	}

	logger.Info("download tracked", zap.String("filename", e.Filename), zap.Int64("size_bytes", e.SizeBytes))
	return e.ID, nil
}

// Stats reports a client's most recent downloads and the counters.
func (t *Tracker) Stats(ctx context.Context, clientIP string) (Stats, error) {
	now := t.now().UTC()
	stats := Stats{RecentDownloads: []model.DownloadEvent{}, Timestamp: now}

	var recent []model.DownloadEvent
	if _, err := t.cache.Get(ctx, cache.RecentDownloadsKey(model.Sanitize(orUnknown(clientIP))), &recent); err != nil {
		return Stats{}, err
	}
	if len(recent) > MaxRecentInStats {
		recent = recent[:MaxRecentInStats]
	}
	if recent != nil {
		stats.RecentDownloads = recent
	}

	var err error
	if stats.DownloadsToday, err = t.counter(ctx, cache.DownloadsKey(now.Format(dateLayout))); err != nil {
		return Stats{}, err
	}
	if stats.TotalDownloads, err = t.counter(ctx, cache.TotalDownloadsKey); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (t *Tracker) increment(ctx context.Context, key string) error {
	n, err := t.counter(ctx, key)
	if err != nil {
		t.logger.Warn("unreadable counter, resetting", zap.String("key", key), zap.Error(err))
		n = 0
	}
	return t.cache.Set(ctx, key, n+1, cache.DownloadCounterTTL)
}

func (t *Tracker) counter(ctx context.Context, key string) (int64, error) {
	var n int64
	if _, err := t.cache.Get(ctx, key, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// ParseSize reads a size from a form or JSON value. Anything unparseable is 0.
func ParseSize(v interface{}) int64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	n, err := cast.ToInt64E(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ClientIP is the first X-Forwarded-For entry, else the host part of
// RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.UnknownIdentifier
	}
	return s
}
