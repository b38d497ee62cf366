// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package triage

import (
	"context"
	"errors"
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/xmidt-org/logscope/config"
	"github.com/xmidt-org/logscope/downloads"
	"github.com/xmidt-org/logscope/model"
	"github.com/xmidt-org/logscope/notify"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

const genericErrorMessage = "Internal server error"

// BadRequestErr is a caller error with a message safe to return as is.
type BadRequestErr struct {
	Message string
}

func (bre BadRequestErr) Error() string {
	return bre.Message
}

func (bre BadRequestErr) StatusCode() int {
	return http.StatusBadRequest
}

// errorBody builds the route specific error payload.
type errorBody func(code int, err error) interface{}

func statusCode(err error) int {
	var sc kithttp.StatusCoder
	switch {
	case errors.As(err, &sc):
		return sc.StatusCode()
	case errors.Is(err, model.ErrMissingIdentifier),
		errors.Is(err, config.ErrConfigParse),
		errors.Is(err, notify.ErrInvalidRecipient):
		return http.StatusBadRequest
	case errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage never exposes paths or internal state. Server errors the
// caller can act on keep a fixed description; everything else is generic.
func publicMessage(code int, err error) string {
	switch {
	case code < http.StatusInternalServerError:
		return err.Error()
	case errors.Is(err, config.ErrConfigShape):
		return config.ErrConfigShape.Error()
	case errors.Is(err, notify.ErrNotConfigured):
		return "Email service is not configured"
	case errors.Is(err, notify.ErrSendFailed):
		return "Failed to send email"
	case errors.Is(err, downloads.ErrTrackingFailed):
		return "Failed to record download"
	default:
		return genericErrorMessage
	}
}

func newErrorEncoder(body errorBody) kithttp.ErrorEncoder {
	return func(ctx context.Context, err error, w http.ResponseWriter) {
		code := statusCode(err)
		if code >= http.StatusInternalServerError {
			sallust.Get(ctx).Error("request failed", zap.Int("code", code), zap.Error(err))
		}
		if headerer, ok := err.(kithttp.Headerer); ok {
			for k, values := range headerer.Headers() {
				for _, v := range values {
					w.Header().Add(k, v)
				}
			}
		}
		writeJSON(w, code, body(code, err))
	}
}

func messageBody(code int, err error) interface{} {
	return map[string]interface{}{"error": publicMessage(code, err)}
}

func appConfigErrorBody(code int, err error) interface{} {
	title := "Failed to load configuration"
	message := publicMessage(code, err)
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		title = "Configuration file not found"
		message = "Please ensure app_config.json exists in the configured location"
	case errors.Is(err, config.ErrConfigParse):
		title = "Invalid configuration format"
	}
	return map[string]interface{}{"error": title, "message": message}
}

func podsErrorBody(code int, err error) interface{} {
	return map[string]interface{}{"error": publicMessage(code, err), "pods": []model.PodDescriptor{}}
}

func podLogsErrorBody(code int, err error) interface{} {
	return map[string]interface{}{"error": publicMessage(code, err), "logs": ""}
}

func failureBody(code int, err error) interface{} {
	return map[string]interface{}{"success": false, "error": publicMessage(code, err)}
}
