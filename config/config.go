// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xmidt-org/logscope/cache"
	"go.uber.org/zap"
)

var (
	ErrConfigNotFound = errors.New("configuration file not found")
	ErrConfigParse    = errors.New("invalid configuration format")
	ErrConfigShape    = errors.New("configuration must be a JSON object")
)

// Document is a parsed JSON object owned by an external party.
type Document map[string]interface{}

// Paths locates the external documents.
type Paths struct {
	AppConfig  string
	PodsConfig string
}

// Resolver loads the application and pods documents, caching each for
// cache.ConfigTTL.
type Resolver struct {
	paths  Paths
	cache  cache.Cache
	logger *zap.Logger
}

func NewResolver(paths Paths, c cache.Cache, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{paths: paths, cache: c, logger: logger}
}

// AppConfig returns the application document. A missing file, malformed
// JSON and a non-object top level produce ErrConfigNotFound, ErrConfigParse
// and ErrConfigShape respectively.
func (r *Resolver) AppConfig(ctx context.Context) (Document, error) {
	var doc Document
	if r.cached(ctx, cache.AppConfigKey, &doc) {
		r.logger.Debug("returning cached app configuration")
		return doc, nil
	}

	doc, err := load(r.paths.AppConfig)
	if err != nil {
		r.logger.Error("failed to load app configuration", zap.String("path", r.paths.AppConfig), zap.Error(err))
		return nil, err
	}

	r.store(ctx, cache.AppConfigKey, doc)
	r.logger.Info("loaded and cached app configuration")
	return doc, nil
}

// PodsConfig returns the pods document, or an empty document when it is
// missing or invalid. Pod listing must never fail because of it.
func (r *Resolver) PodsConfig(ctx context.Context) Document {
	var doc Document
	if r.cached(ctx, cache.PodsConfigKey, &doc) {
		return doc
	}

	doc, err := load(r.paths.PodsConfig)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			r.logger.Debug("pods configuration not found", zap.String("path", r.paths.PodsConfig))
		} else {
			r.logger.Warn("ignoring invalid pods configuration", zap.String("path", r.paths.PodsConfig), zap.Error(err))
		}
		return Document{}
	}

	r.store(ctx, cache.PodsConfigKey, doc)
	return doc
}

// AppConfigExists reports whether the application document is present.
func (r *Resolver) AppConfigExists() bool {
	return fileExists(r.paths.AppConfig)
}

// PodsConfigExists reports whether the pods document is present.
func (r *Resolver) PodsConfigExists() bool {
	return fileExists(r.paths.PodsConfig)
}

func (r *Resolver) cached(ctx context.Context, key string, doc *Document) bool {
	found, err := r.cache.Get(ctx, key, doc)
	if err != nil {
		r.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found && len(*doc) > 0
}

func (r *Resolver) store(ctx context.Context, key string, doc Document) {
	if err := r.cache.Set(ctx, key, doc, cache.ConfigTTL); err != nil {
		r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return nil, err
	}

	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after top level value", ErrConfigParse)
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, ErrConfigShape
	}
	return Document(obj), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
