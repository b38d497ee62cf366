// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/xmidt-org/logscope/analysis"
	"github.com/xmidt-org/logscope/cache"
	"github.com/xmidt-org/logscope/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"

	healthFailedMessage = "Health check failed"

	maxDiskUsedPercent = 95.0
	healthCheckTimeout = 5 * time.Second
)

// HealthHandler serves the health report.
type HealthHandler http.Handler

type healthCheck struct {
	name  string
	check func(ctx context.Context) bool
}

type healthReport struct {
	Status    string          `json:"status"`
	Checks    map[string]bool `json:"checks,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type healthChecker struct {
	checks []healthCheck
	now    func() time.Time
	logger *zap.Logger
}

type healthIn struct {
	fx.In
	Paths    PathsConfig
	Config   *config.Resolver
	Analysis *analysis.Client
	Cache    cache.Cache
	Logger   *zap.Logger
}

func provideHealthHandler(in healthIn) HealthHandler {
	logger := in.Logger.Named("health")
	return &healthChecker{
		checks: []healthCheck{
			{"analysis_api_configured", func(context.Context) bool { return in.Analysis.Configured() }},
			{"app_config_exists", func(context.Context) bool { return in.Config.AppConfigExists() }},
			{"pods_config_exists", func(context.Context) bool { return in.Config.PodsConfigExists() }},
			{"logs_directory_exists", func(context.Context) bool { return dirExists(in.Paths.LogsRoot) }},
			{"cache_reachable", func(ctx context.Context) bool { return cacheReachable(ctx, in.Cache, logger) }},
			{"logs_disk_usage_ok", func(ctx context.Context) bool { return diskUsageOK(ctx, in.Paths.LogsRoot, logger) }},
		},
		now:    time.Now,
		logger: logger,
	}
}

func (h *healthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	report, err := h.report(ctx)
	code := http.StatusOK
	if err != nil {
		h.logger.Error("failed to build health report", zap.Error(err))
		report = healthReport{Status: statusUnhealthy, Error: healthFailedMessage, Timestamp: h.now().UTC()}
		code = http.StatusInternalServerError
	}

	data, _ := json.Marshal(report)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

// report runs every check. A panicking check fails the whole report.
func (h *healthChecker) report(ctx context.Context) (report healthReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("health check panicked: %v", r)
		}
	}()

	report = healthReport{
		Status:    statusHealthy,
		Checks:    make(map[string]bool, len(h.checks)),
		Timestamp: h.now().UTC(),
	}
	for _, c := range h.checks {
		ok := c.check(ctx)
		report.Checks[c.name] = ok
		if !ok {
			report.Status = statusDegraded
		}
	}
	return report, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func cacheReachable(ctx context.Context, c cache.Cache, logger *zap.Logger) bool {
	if err := cache.Ping(ctx, c); err != nil {
		logger.Warn("cache unreachable", zap.Error(err))
		return false
	}
	return true
}

func diskUsageOK(ctx context.Context, path string, logger *zap.Logger) bool {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		logger.Warn("failed to read disk usage", zap.String("path", path), zap.Error(err))
		return false
	}
	return usage.UsedPercent < maxDiskUsedPercent
}
