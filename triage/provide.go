// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package triage

import (
	"go.uber.org/fx"
)

// TransportConfig holds request limits.
type TransportConfig struct {
	// MaxBodyBytes caps request bodies. (Optional) Defaults to 1MiB.
	MaxBodyBytes int64
}

type handlerIn struct {
	fx.In

	Config    TransportConfig `optional:"true"`
	AppConfig AppConfigSource
	Pods      PodLister
	Logs      LogResolver
	Analyzer  Analyzer
	Notifier  Notifier
	Downloads DownloadTracker
}

// Handlers are the route handlers, one per operation.
type Handlers struct {
	fx.Out

	AppConfig     Handler `name:"app_config_handler"`
	Pods          Handler `name:"pods_handler"`
	PodLogs       Handler `name:"pod_logs_handler"`
	Summarize     Handler `name:"summarize_handler"`
	Analyze       Handler `name:"analyze_handler"`
	SendRCAEmail  Handler `name:"send_rca_email_handler"`
	TrackDownload Handler `name:"track_download_handler"`
	DownloadStats Handler `name:"download_stats_handler"`
}

// ProvideHandlers fetches all dependencies and builds the handlers.
func ProvideHandlers() fx.Option {
	return fx.Provide(newHandlers)
}

func newHandlers(in handlerIn) Handlers {
	d := newRequestDecoder(in.Config.MaxBodyBytes)
	return Handlers{
		AppConfig:     newAppConfigHandler(d, in.AppConfig),
		Pods:          newPodsHandler(d, in.Pods),
		PodLogs:       newPodLogsHandler(d, in.Logs),
		Summarize:     newSummarizeHandler(d, in.Analyzer),
		Analyze:       newAnalyzeHandler(d, in.Analyzer),
		SendRCAEmail:  newRCAEmailHandler(d, in.Notifier),
		TrackDownload: newTrackDownloadHandler(d, in.Downloads),
		DownloadStats: newDownloadStatsHandler(d, in.Downloads),
	}
}
