// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package triage

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/xmidt-org/logscope/config"
	"github.com/xmidt-org/logscope/downloads"
	"github.com/xmidt-org/logscope/logs"
	"github.com/xmidt-org/logscope/model"
	"github.com/xmidt-org/logscope/notify"
)

type mockAppConfig struct {
	mock.Mock
}

func (m *mockAppConfig) AppConfig(ctx context.Context) (config.Document, error) {
	args := m.Called(ctx)
	doc, _ := args.Get(0).(config.Document)
	return doc, args.Error(1)
}

type mockPods struct {
	mock.Mock
}

func (m *mockPods) List(ctx context.Context, app, cluster, bundle string) ([]model.PodDescriptor, error) {
	args := m.Called(ctx, app, cluster, bundle)
	pods, _ := args.Get(0).([]model.PodDescriptor)
	return pods, args.Error(1)
}

type mockLogs struct {
	mock.Mock
}

func (m *mockLogs) Resolve(ctx context.Context, req logs.Request) (model.LogRecord, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.LogRecord), args.Error(1)
}

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Summarize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *mockAnalyzer) Analyze(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendRCA(ctx context.Context, r notify.Report) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

type mockDownloads struct {
	mock.Mock
}

func (m *mockDownloads) Track(ctx context.Context, e model.DownloadEvent) (string, error) {
	args := m.Called(ctx, e)
	return args.String(0), args.Error(1)
}

func (m *mockDownloads) Stats(ctx context.Context, clientIP string) (downloads.Stats, error) {
	args := m.Called(ctx, clientIP)
	return args.Get(0).(downloads.Stats), args.Error(1)
}
