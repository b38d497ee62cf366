// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package pods

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xmidt-org/logscope/cache"
	"github.com/xmidt-org/logscope/cache/inmem"
	"github.com/xmidt-org/logscope/config"
	"github.com/xmidt-org/logscope/model"
)

type staticConfig struct {
	doc   config.Document
	calls int
}

func (s *staticConfig) PodsConfig(_ context.Context) config.Document {
	s.calls++
	return s.doc
}

func mustDocument(t *testing.T, raw string) config.Document {
	t.Helper()
	var doc config.Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestListSamplePods(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	l := NewLister(&staticConfig{doc: config.Document{}}, inmem.NewInMem(), nil)
	pods, err := l.List(context.Background(), "shop", "eu-1", "smoke")
	require.NoError(err)
	require.Len(pods, 6)

	var errorPods, warnPods int
	for _, p := range pods {
		assert.True(strings.HasPrefix(p.Name, "shop-smoke-"), p.Name)
		switch model.ClassifyPodIntent(p.Name) {
		case model.IntentError:
			errorPods++
			assert.Contains(p.DisplayName, "(Error Demo)")
		case model.IntentWarning:
			warnPods++
			assert.Contains(p.DisplayName, "(Warning Demo)")
		default:
			assert.Equal(p.Name, p.DisplayName)
		}
	}
	assert.Equal(1, errorPods)
	assert.Equal(1, warnPods)
	assert.Equal("shop-smoke-error-pod", pods[4].Name)
}

func TestListSamplePodsSanitizesIdentifiers(t *testing.T) {
	l := NewLister(&staticConfig{}, inmem.NewInMem(), nil)
	pods, err := l.List(context.Background(), "my shop", "eu-1", "a/b")
	require.NoError(t, err)
	for _, p := range pods {
		assert.Equal(t, p.Name, model.Sanitize(p.Name))
	}
}

func TestListConfiguredPods(t *testing.T) {
	tcs := []struct {
		Description string
		Config      string
		Expected    []model.PodDescriptor
	}{
		{
			Description: "plain names",
			Config:      `{"shop": {"eu-1": {"smoke": ["cart-1", "cart-2"]}}}`,
			Expected: []model.PodDescriptor{
				{Name: "cart-1", DisplayName: "cart-1"},
				{Name: "cart-2", DisplayName: "cart-2"},
			},
		},
		{
			Description: "objects",
			Config:      `{"shop": {"eu-1": {"smoke": [{"name": "cart-1", "display_name": "Cart"}, {"name": "cart-2"}, {"display_name": "ignored"}]}}}`,
			Expected: []model.PodDescriptor{
				{Name: "cart-1", DisplayName: "Cart"},
				{Name: "cart-2", DisplayName: "cart-2"},
			},
		},
		{
			Description: "empty list used verbatim",
			Config:      `{"shop": {"eu-1": {"smoke": []}}}`,
			Expected:    []model.PodDescriptor{},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			l := NewLister(&staticConfig{doc: mustDocument(t, tc.Config)}, inmem.NewInMem(), nil)
			pods, err := l.List(context.Background(), "shop", "eu-1", "smoke")
			require.NoError(t, err)
			assert.Equal(t, tc.Expected, pods)
		})
	}
}

func TestConfiguredFallsBack(t *testing.T) {
	tcs := []struct {
		Description string
		Config      string
	}{
		{Description: "unknown app", Config: `{"other": {}}`},
		{Description: "cluster not a map", Config: `{"shop": ["eu-1"]}`},
		{Description: "bundle not a list", Config: `{"shop": {"eu-1": {"smoke": "cart-1"}}}`},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			_, ok := Configured(mustDocument(t, tc.Config), "shop", "eu-1", "smoke")
			assert.False(t, ok)
		})
	}
}

func TestListIsCached(t *testing.T) {
	assert := assert.New(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := inmem.NewInMemWithClock(func() time.Time { return now })
	src := &staticConfig{}

	l := NewLister(src, c, nil)
	first, err := l.List(context.Background(), "shop", "eu-1", "smoke")
	assert.NoError(err)
	second, err := l.List(context.Background(), "shop", "eu-1", "smoke")
	assert.NoError(err)
	assert.Equal(first, second)
	assert.Equal(1, src.calls)

	var cached []model.PodDescriptor
	found, err := c.Get(context.Background(), cache.PodsKey("shop", "eu-1", "smoke"), &cached)
	assert.True(found)
	assert.NoError(err)

	now = now.Add(cache.PodsTTL)
	_, err = l.List(context.Background(), "shop", "eu-1", "smoke")
	assert.NoError(err)
	assert.Equal(2, src.calls)
}

func TestListMissingIdentifiers(t *testing.T) {
	tcs := []struct {
		App, Cluster, Bundle string
		Missing              string
	}{
		{App: "", Cluster: "eu-1", Bundle: "smoke", Missing: "application"},
		{App: "shop", Cluster: " ", Bundle: "smoke", Missing: "cluster"},
		{App: "shop", Cluster: "eu-1", Bundle: "", Missing: "bundle"},
	}

	for _, tc := range tcs {
		t.Run(tc.Missing, func(t *testing.T) {
			l := NewLister(&staticConfig{}, inmem.NewInMem(), nil)
			pods, err := l.List(context.Background(), tc.App, tc.Cluster, tc.Bundle)
			assert.ErrorIs(t, err, model.ErrMissingIdentifier)
			assert.Contains(t, err.Error(), tc.Missing)
			assert.Nil(t, pods)
		})
	}
}
