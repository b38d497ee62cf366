// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package analysis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotConfigured  = errors.New("text analysis service is not configured")
	ErrNoInput        = errors.New("no logs available")
	ErrEmptyResponse  = errors.New("received empty response from text analysis service")
	ErrTimeout        = errors.New("text analysis request timed out")
	ErrNetwork        = errors.New("network error")
	ErrInvalidAddress = errors.New("text analysis address must be an http or https URL")
)

var (
	errNewRequestFailure  = errors.New("failed creating an HTTP request")
	errAuthFailure        = errors.New("failed adding auth to request")
	errReadingBodyFailure = errors.New("failed while reading http response body")
	errJSONUnmarshal      = errors.New("failed unmarshaling JSON response payload")
	errJSONMarshal        = errors.New("failed marshaling JSON request payload")
)

const (
	errWrappedFmt = "%w: %s"
	maxBodyInMsg  = 200
)

// StatusError is a non-200 answer from the service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, truncateRunes(e.Body, maxBodyInMsg))
}

// Message maps the result of a Summarize or Analyze call onto the text shown
// to users. Every error has one; nothing is surfaced as a failure.
func Message(task Task, err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrNoInput):
		if task == TaskAnalyze {
			return "❌ No logs available for root cause analysis."
		}
		return "❌ No logs available to summarize."
	case errors.Is(err, ErrNotConfigured):
		return "❌ AI service is not configured. Set TOGETHER_API_KEY to enable it."
	case errors.Is(err, ErrEmptyResponse):
		return "❌ Received empty response from AI service."
	case errors.As(err, &statusErr):
		return "❌ " + statusErr.Error()
	case errors.Is(err, ErrTimeout):
		return "❌ Request timed out. Please try again."
	case errors.Is(err, ErrNetwork):
		return "❌ Network error: " + strings.TrimPrefix(err.Error(), ErrNetwork.Error()+": ")
	default:
		return fmt.Sprintf("❌ Unexpected error: %v", err)
	}
}
