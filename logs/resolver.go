// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xmidt-org/logscope/cache"
	"github.com/xmidt-org/logscope/model"
	"go.uber.org/zap"
)

const bannerTimeLayout = "2006-01-02 15:04:05 MST"

// Request names a pod. All four fields are required.
type Request struct {
	Application string
	Cluster     string
	Bundle      string
	Pod         string
}

// Synthesizer is the terminal fallback. It must not return empty content.
type Synthesizer interface {
	Synthesize(app, cluster, bundle, pod string) string
}

type Options struct {
	Root        string
	Cache       cache.Cache
	Live        LiveSource
	Synthesizer Synthesizer
	Measures    *Measures
	Now         func() time.Time
	Logger      *zap.Logger
}

// Resolver walks the fallback chain: cache, filesystem, live fetch, synthesis.
type Resolver struct {
	root     string
	cache    cache.Cache
	live     LiveSource
	synth    Synthesizer
	measures *Measures
	now      func() time.Time
	logger   *zap.Logger
}

func NewResolver(o Options) *Resolver {
	r := &Resolver{
		root:     o.Root,
		cache:    o.Cache,
		live:     o.Live,
		synth:    o.Synthesizer,
		measures: o.Measures,
		now:      o.Now,
		logger:   o.Logger,
	}
	if r.live == nil {
		r.live = NopSource{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Resolve returns the logs for a pod. Only a missing identifier is an error;
// every other failure falls through to the next stage.
func (r *Resolver) Resolve(ctx context.Context, req Request) (model.LogRecord, error) {
	err := model.RequireIdentifiers(
		model.Field{Name: "application", Value: req.Application},
		model.Field{Name: "cluster", Value: req.Cluster},
		model.Field{Name: "bundle", Value: req.Bundle},
		model.Field{Name: "pod", Value: req.Pod},
	)
	if err != nil {
		return model.LogRecord{}, err
	}

	id := Identifiers{
		App:     model.Sanitize(strings.TrimSpace(req.Application)),
		Cluster: model.Sanitize(strings.TrimSpace(req.Cluster)),
		Bundle:  model.Sanitize(strings.TrimSpace(req.Bundle)),
		Pod:     model.Sanitize(strings.TrimSpace(req.Pod)),
	}
	key := cache.PodLogsKey(id.App, id.Cluster, id.Bundle, id.Pod)
	logger := r.logger.With(zap.String("key", key))

	var cached model.LogRecord
	found, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		logger.Warn("cache read failed", zap.Error(err))
	}
	if found && err == nil && cached.Content != "" {
		cached.Source = model.SourceCache
		r.count(model.SourceCache)
		return cached, nil
	}

	now := r.now()
	content, source := r.produce(ctx, logger, id, now)

	record := model.LogRecord{
		Content:   banner(now, source, id) + content,
		Source:    source,
		FetchedAt: now.UTC(),
	}
	if err := r.cache.Set(ctx, key, record, cache.PodLogsTTL); err != nil {
		logger.Warn("cache write failed", zap.Error(err))
	}
	r.count(source)
	return record, nil
}

func (r *Resolver) produce(ctx context.Context, logger *zap.Logger, id Identifiers, now time.Time) (string, model.Source) {
	if path, content, ok := search(r.root, id, now); ok {
		logger.Debug("found logs on disk", zap.String("path", path))
		return content, model.SourceFilesystem
	}

	content, err := r.live.Fetch(ctx, id)
	switch {
	case err != nil:
		logger.Debug("live fetch produced nothing", zap.Error(err))
	case strings.TrimSpace(content) != "":
		return content, model.SourceLiveFetch
	}

	content = r.synth.Synthesize(id.App, id.Cluster, id.Bundle, id.Pod)
	r.persist(logger, id, content)
	return content, model.SourceSynthesized
}

// persist writes synthesized content where the filesystem search will find
// it next time. Failures are logged only.
func (r *Resolver) persist(logger *zap.Logger, id Identifiers, content string) {
	for _, p := range []string{FlatPath(r.root, id), HierarchicalPath(r.root, id)} {
		if err := writeAtomic(p, []byte(content)); err != nil {
			logger.Error("failed to persist synthesized logs", zap.String("path", p), zap.Error(err))
		}
	}
}

func (r *Resolver) count(source model.Source) {
	if r.measures != nil && r.measures.Resolutions != nil {
		r.measures.Resolutions.WithLabelValues(string(source)).Inc()
	}
}

func banner(now time.Time, source model.Source, id Identifiers) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Logs loaded at %s\n", now.UTC().Format(bannerTimeLayout))
	fmt.Fprintf(&b, "# Source: %s\n", source)
	fmt.Fprintf(&b, "# Application: %s | Cluster: %s | Bundle: %s | Pod: %s\n", id.App, id.Cluster, id.Bundle, id.Pod)
	b.WriteString("# " + strings.Repeat("-", 60) + "\n")
	return b.String()
}
