// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"time"

	"github.com/spf13/viper"
	"github.com/xmidt-org/logscope/analysis"
	"github.com/xmidt-org/logscope/cache"
	"github.com/xmidt-org/logscope/config"
	"github.com/xmidt-org/logscope/downloads"
	"github.com/xmidt-org/logscope/logs"
	"github.com/xmidt-org/logscope/notify"
	"github.com/xmidt-org/logscope/pods"
	"github.com/xmidt-org/logscope/synth"
	"github.com/xmidt-org/logscope/triage"
	"github.com/xmidt-org/sallust"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultAppConfigPath  = "app_config.json"
	defaultPodsConfigPath = "pods_config.json"
	defaultLogsRoot       = "logs"
)

// PathsConfig locates the documents read and the log tree written.
type PathsConfig struct {
	AppConfig  string
	PodsConfig string
	LogsRoot   string
}

// LiveConfig controls the live log source.
type LiveConfig struct {
	Enabled   bool
	Command   string
	Timeout   time.Duration
	TailLines int
}

func unmarshalKey[T any](key string) func(*viper.Viper) (T, error) {
	return func(v *viper.Viper) (T, error) {
		var t T
		err := v.UnmarshalKey(key, &t)
		return t, err
	}
}

func providePaths(v *viper.Viper) (PathsConfig, error) {
	p, err := unmarshalKey[PathsConfig]("paths")(v)
	if err != nil {
		return p, err
	}
	if p.AppConfig == "" {
		p.AppConfig = defaultAppConfigPath
	}
	if p.PodsConfig == "" {
		p.PodsConfig = defaultPodsConfigPath
	}
	if p.LogsRoot == "" {
		p.LogsRoot = defaultLogsRoot
	}
	return p, nil
}

func provideLiveSource(c LiveConfig) logs.LiveSource {
	if !c.Enabled {
		return logs.NopSource{}
	}
	return logs.KubectlSource{Command: c.Command, Timeout: c.Timeout, TailLines: c.TailLines}
}

type logResolverIn struct {
	fx.In
	Paths    PathsConfig
	Cache    cache.Cache
	Live     logs.LiveSource
	Measures logs.Measures
	Logger   *zap.Logger
}

func provideLogResolver(in logResolverIn) *logs.Resolver {
	return logs.NewResolver(logs.Options{
		Root:        in.Paths.LogsRoot,
		Cache:       in.Cache,
		Live:        in.Live,
		Synthesizer: synth.New(nil),
		Measures:    &in.Measures,
		Logger:      in.Logger.Named("logs"),
	})
}

func provideAnalysisClient(c analysis.ClientConfig, m analysis.Measures) (*analysis.Client, error) {
	return analysis.NewClient(c, &m, func(ctx context.Context) *zap.Logger {
		return sallust.Get(ctx).Named("analysis")
	})
}

// provideServices builds the domain services and exposes them to the
// handlers through the interfaces triage consumes.
func provideServices() fx.Option {
	return fx.Provide(
		providePaths,
		unmarshalKey[LiveConfig]("logs.live"),
		unmarshalKey[analysis.ClientConfig]("analysis"),
		unmarshalKey[notify.Config]("notify"),
		unmarshalKey[triage.TransportConfig]("transport"),

		func(p PathsConfig, c cache.Cache, l *zap.Logger) *config.Resolver {
			return config.NewResolver(config.Paths{AppConfig: p.AppConfig, PodsConfig: p.PodsConfig}, c, l.Named("config"))
		},
		func(r *config.Resolver, c cache.Cache, l *zap.Logger) *pods.Lister {
			return pods.NewLister(r, c, l.Named("pods"))
		},
		provideLiveSource,
		provideLogResolver,
		provideAnalysisClient,
		func(c notify.Config, l *zap.Logger) *notify.Notifier {
			return notify.New(c, l.Named("notify"))
		},
		func(c cache.Cache, l *zap.Logger) *downloads.Tracker {
			return downloads.NewTracker(c, nil, l.Named("downloads"))
		},

		func(r *config.Resolver) triage.AppConfigSource { return r },
		func(l *pods.Lister) triage.PodLister { return l },
		func(r *logs.Resolver) triage.LogResolver { return r },
		func(c *analysis.Client) triage.Analyzer { return c },
		func(n *notify.Notifier) triage.Notifier { return n },
		func(t *downloads.Tracker) triage.DownloadTracker { return t },
	)
}
