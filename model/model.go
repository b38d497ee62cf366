// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package model

import "time"

// Source identifies which resolution stage produced a log record.
type Source string

const (
	SourceCache       Source = "cache"
	SourceFilesystem  Source = "filesystem"
	SourceLiveFetch   Source = "live-fetch"
	SourceSynthesized Source = "synthesized"
)

// PodDescriptor describes one selectable pod.
type PodDescriptor struct {
	// Name is the identifier used to resolve the pod's logs.
	Name string `json:"name"`

	// DisplayName is what a caller should show for the pod.
	DisplayName string `json:"display_name"`
}

// LogRecord is the result of resolving logs for a pod.
type LogRecord struct {
	// Content is never empty when returned to a caller. It starts with the
	// metadata banner.
	Content string `json:"content"`

	// Source is the stage that produced Content.
	Source Source `json:"source"`

	// FetchedAt is when Content was resolved.
	FetchedAt time.Time `json:"fetched_at"`
}

// DownloadEvent records a single log download by a client.
type DownloadEvent struct {
	Filename    string    `json:"filename"`
	Application string    `json:"application"`
	Cluster     string    `json:"cluster"`
	Bundle      string    `json:"bundle"`
	Pod         string    `json:"pod"`
	SizeBytes   int64     `json:"size_bytes"`
	ClientIP    string    `json:"client_ip"`
	UserAgent   string    `json:"user_agent"`
	Timestamp   time.Time `json:"timestamp"`
	ID          string    `json:"download_id,omitempty"`
}
