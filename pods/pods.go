// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package pods

import (
	"context"
	"strings"

	"github.com/xmidt-org/logscope/cache"
	"github.com/xmidt-org/logscope/config"
	"github.com/xmidt-org/logscope/model"
	"go.uber.org/zap"
)

const (
	errorDemoSuffix   = "error-pod"
	warningDemoSuffix = "warn-service"
)

// PodsConfigSource provides the pods document.
type PodsConfigSource interface {
	PodsConfig(ctx context.Context) config.Document
}

// Lister resolves the pods of an (application, cluster, bundle) triple.
type Lister struct {
	configs PodsConfigSource
	cache   cache.Cache
	logger  *zap.Logger
}

func NewLister(configs PodsConfigSource, c cache.Cache, logger *zap.Logger) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{configs: configs, cache: c, logger: logger}
}

// List returns the cached list, else the configured list, else the fixed
// six-pod sample set. The result is cached for cache.PodsTTL.
func (l *Lister) List(ctx context.Context, app, cluster, bundle string) ([]model.PodDescriptor, error) {
	app, cluster, bundle = strings.TrimSpace(app), strings.TrimSpace(cluster), strings.TrimSpace(bundle)
	err := model.RequireIdentifiers(
		model.Field{Name: "application", Value: app},
		model.Field{Name: "cluster", Value: cluster},
		model.Field{Name: "bundle", Value: bundle},
	)
	if err != nil {
		return nil, err
	}

	sApp, sCluster, sBundle := model.Sanitize(app), model.Sanitize(cluster), model.Sanitize(bundle)
	key := cache.PodsKey(sApp, sCluster, sBundle)

	var pods []model.PodDescriptor
	found, err := l.cache.Get(ctx, key, &pods)
	if err != nil {
		l.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}
	if found && err == nil {
		return pods, nil
	}

	pods, ok := Configured(l.configs.PodsConfig(ctx), app, cluster, bundle)
	if ok {
		l.logger.Debug("using configured pods", zap.String("key", key), zap.Int("count", len(pods)))
	} else {
		pods = SamplePods(sApp, sBundle)
		l.logger.Debug("using sample pods", zap.String("key", key))
	}

	if err := l.cache.Set(ctx, key, pods, cache.PodsTTL); err != nil {
		l.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return pods, nil
}

// Configured walks doc along app -> cluster -> bundle. It reports false
// unless that path ends in a list. Elements may be plain names or objects
// with "name" and optional "display_name".
func Configured(doc config.Document, app, cluster, bundle string) ([]model.PodDescriptor, bool) {
	var node interface{} = map[string]interface{}(doc)
	for _, k := range []string{app, cluster, bundle} {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if node, ok = m[k]; !ok {
			return nil, false
		}
	}

	list, ok := node.([]interface{})
	if !ok {
		return nil, false
	}

	pods := make([]model.PodDescriptor, 0, len(list))
	for _, elem := range list {
		switch e := elem.(type) {
		case string:
			pods = append(pods, model.PodDescriptor{Name: e, DisplayName: e})
		case map[string]interface{}:
			name, _ := e["name"].(string)
			if name == "" {
				continue
			}
			display, _ := e["display_name"].(string)
			if display == "" {
				display = name
			}
			pods = append(pods, model.PodDescriptor{Name: name, DisplayName: display})
		}
	}
	return pods, true
}

// SamplePods builds the fixed sample set: two web pods, one api, one worker,
// one error demo and one warning demo. The demo names make the synthesizer
// produce failure and degraded content.
func SamplePods(app, bundle string) []model.PodDescriptor {
	prefix := app + "-" + bundle
	names := []string{
		prefix + "-web-1",
		prefix + "-web-2",
		prefix + "-api-1",
		prefix + "-worker-1",
		prefix + "-" + errorDemoSuffix,
		prefix + "-" + warningDemoSuffix,
	}

	pods := make([]model.PodDescriptor, 0, len(names))
	for _, n := range names {
		pods = append(pods, model.PodDescriptor{Name: n, DisplayName: displayName(n)})
	}
	return pods
}

func displayName(name string) string {
	switch {
	case strings.HasSuffix(name, "-"+errorDemoSuffix):
		return strings.TrimSuffix(name, "-"+errorDemoSuffix) + " (Error Demo)"
	case strings.HasSuffix(name, "-"+warningDemoSuffix):
		return strings.TrimSuffix(name, "-"+warningDemoSuffix) + " (Warning Demo)"
	default:
		return name
	}
}
