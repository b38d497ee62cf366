// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package triage

import (
	"context"
	"fmt"

	"github.com/go-kit/kit/endpoint"
	"github.com/xmidt-org/logscope/analysis"
	"github.com/xmidt-org/logscope/config"
	"github.com/xmidt-org/logscope/downloads"
	"github.com/xmidt-org/logscope/logs"
	"github.com/xmidt-org/logscope/model"
	"github.com/xmidt-org/logscope/notify"
)

type AppConfigSource interface {
	AppConfig(ctx context.Context) (config.Document, error)
}

type PodLister interface {
	List(ctx context.Context, app, cluster, bundle string) ([]model.PodDescriptor, error)
}

type LogResolver interface {
	Resolve(ctx context.Context, req logs.Request) (model.LogRecord, error)
}

type Analyzer interface {
	Summarize(ctx context.Context, text string) (string, error)
	Analyze(ctx context.Context, text string) (string, error)
}

type Notifier interface {
	SendRCA(ctx context.Context, r notify.Report) error
}

type DownloadTracker interface {
	Track(ctx context.Context, e model.DownloadEvent) (string, error)
	Stats(ctx context.Context, clientIP string) (downloads.Stats, error)
}

type podsResponse struct {
	Pods []model.PodDescriptor `json:"pods"`
}

type podLogsResponse struct {
	Logs string `json:"logs"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

type analysisResponse struct {
	Analysis string `json:"analysis"`
}

type rcaEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type trackDownloadResponse struct {
	Success    bool   `json:"success"`
	DownloadID string `json:"download_id"`
}

type downloadStatsResponse struct {
	Success bool            `json:"success"`
	Stats   downloads.Stats `json:"stats"`
}

func newAppConfigEndpoint(s AppConfigSource) endpoint.Endpoint {
	return func(ctx context.Context, _ interface{}) (interface{}, error) {
		doc, err := s.AppConfig(ctx)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
}

func newPodsEndpoint(l PodLister) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*podsRequest)
		pods, err := l.List(ctx, req.Application, req.Cluster, req.Bundle)
		if err != nil {
			return nil, err
		}
		if pods == nil {
			pods = []model.PodDescriptor{}
		}
		return &podsResponse{Pods: pods}, nil
	}
}

func newPodLogsEndpoint(r LogResolver) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*podLogsRequest)
		rec, err := r.Resolve(ctx, logs.Request{
			Application: req.Application,
			Cluster:     req.Cluster,
			Bundle:      req.Bundle,
			Pod:         req.Pod,
		})
		if err != nil {
			return nil, err
		}
		return &podLogsResponse{Logs: rec.Content}, nil
	}
}

// Analysis failures are answered with 200 and a readable message in the
// payload field.
func newSummarizeEndpoint(a Analyzer) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*analysisRequest)
		out, err := a.Summarize(ctx, req.LogText)
		if err != nil {
			out = analysis.Message(analysis.TaskSummarize, err)
		}
		return &summaryResponse{Summary: out}, nil
	}
}

func newAnalyzeEndpoint(a Analyzer) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*analysisRequest)
		out, err := a.Analyze(ctx, req.LogText)
		if err != nil {
			out = analysis.Message(analysis.TaskAnalyze, err)
		}
		return &analysisResponse{Analysis: out}, nil
	}
}

func newRCAEmailEndpoint(n Notifier) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*rcaEmailRequest)
		err := n.SendRCA(ctx, notify.Report{Email: req.Email, Analysis: req.Analysis, PodName: req.PodName})
		if err != nil {
			return nil, err
		}
		return &rcaEmailResponse{Success: true, Message: fmt.Sprintf("RCA report sent to %s", req.Email)}, nil
	}
}

func newTrackDownloadEndpoint(t DownloadTracker) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*trackDownloadRequest)
		id, err := t.Track(ctx, model.DownloadEvent{
			Filename:    req.Filename,
			Application: req.Application,
			Cluster:     req.Cluster,
			Bundle:      req.Bundle,
			Pod:         req.Pod,
			SizeBytes:   req.SizeBytes,
			ClientIP:    req.ClientIP,
			UserAgent:   req.UserAgent,
		})
		if err != nil {
			return nil, err
		}
		return &trackDownloadResponse{Success: true, DownloadID: id}, nil
	}
}

func newDownloadStatsEndpoint(t DownloadTracker) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(*downloadStatsRequest)
		stats, err := t.Stats(ctx, req.ClientIP)
		if err != nil {
			return nil, err
		}
		return &downloadStatsResponse{Success: true, Stats: stats}, nil
	}
}
