// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package triage

import (
	"errors"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
)

type Handler http.Handler

var errMethodNotAllowed = errors.New("Method not allowed")

// NewMethodNotAllowedHandler answers a known route called with the wrong
// method using the same failure body as the write routes.
func NewMethodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, failureBody(http.StatusMethodNotAllowed, errMethodNotAllowed))
	})
}

func newHandler(e endpoint.Endpoint, decode kithttp.DecodeRequestFunc, body errorBody) Handler {
	return kithttp.NewServer(
		e,
		decode,
		encodeJSONResponse,
		kithttp.ServerErrorEncoder(newErrorEncoder(body)),
	)
}

func newAppConfigHandler(d *requestDecoder, s AppConfigSource) Handler {
	return newHandler(newAppConfigEndpoint(s), d.decodeAppConfigRequest, appConfigErrorBody)
}

func newPodsHandler(d *requestDecoder, l PodLister) Handler {
	return newHandler(newPodsEndpoint(l), d.decodePodsRequest, podsErrorBody)
}

func newPodLogsHandler(d *requestDecoder, r LogResolver) Handler {
	return newHandler(newPodLogsEndpoint(r), d.decodePodLogsRequest, podLogsErrorBody)
}

func newSummarizeHandler(d *requestDecoder, a Analyzer) Handler {
	return newHandler(newSummarizeEndpoint(a), d.decodeAnalysisRequest, messageBody)
}

func newAnalyzeHandler(d *requestDecoder, a Analyzer) Handler {
	return newHandler(newAnalyzeEndpoint(a), d.decodeAnalysisRequest, messageBody)
}

func newRCAEmailHandler(d *requestDecoder, n Notifier) Handler {
	return newHandler(newRCAEmailEndpoint(n), d.decodeRCAEmailRequest, failureBody)
}

func newTrackDownloadHandler(d *requestDecoder, t DownloadTracker) Handler {
	return newHandler(newTrackDownloadEndpoint(t), d.decodeTrackDownloadRequest, failureBody)
}

func newDownloadStatsHandler(d *requestDecoder, t DownloadTracker) Handler {
	return newHandler(newDownloadStatsEndpoint(t), d.decodeDownloadStatsRequest, failureBody)
}
