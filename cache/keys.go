// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"strings"
	"time"
)

// Key prefixes and TTLs of the shared key space.
const (
	AppConfigKey          = "app_config"
	PodsConfigKey         = "pods_config"
	TotalDownloadsKey     = "total_downloads_today"
	podsPrefix            = "pods"
	podLogsPrefix         = "pod_logs"
	recentDownloadsPrefix = "recent_downloads"
	downloadsPrefix       = "downloads"

	ConfigTTL          = 5 * time.Minute
	PodsTTL            = 2 * time.Minute
	PodLogsTTL         = 30 * time.Second
	RecentDownloadsTTL = time.Hour
	DownloadCounterTTL = 24 * time.Hour
)

func join(prefix string, parts ...string) string {
	return prefix + "_" + strings.Join(parts, "_")
}

// PodsKey is the key of a pod list. The parts must already be sanitized.
func PodsKey(app, cluster, bundle string) string {
	return join(podsPrefix, app, cluster, bundle)
}

// PodLogsKey is the key of a resolved log record. The parts must already be
// sanitized.
func PodLogsKey(app, cluster, bundle, pod string) string {
	return join(podLogsPrefix, app, cluster, bundle, pod)
}

// RecentDownloadsKey is the key of a client's recent downloads.
func RecentDownloadsKey(ip string) string {
	return join(recentDownloadsPrefix, ip)
}

// DownloadsKey is the key of the per-day download counter. date is
// formatted as 2006-01-02.
func DownloadsKey(date string) string {
	return join(downloadsPrefix, date)
}
