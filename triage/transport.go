// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"github.com/xmidt-org/logscope/downloads"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

const (
	defaultMaxBodyBytes = 1 << 20
	contentTypeJSON     = "application/json"
)

// fields is a flattened request body: a JSON object or a form.
type fields map[string]interface{}

func (f fields) str(names ...string) string {
	for _, n := range names {
		if v, ok := f[n]; ok {
			if s := strings.TrimSpace(cast.ToString(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

type podsRequest struct {
	Application string `json:"application" validate:"required"`
	Cluster     string `json:"cluster" validate:"required"`
	Bundle      string `json:"bundle" validate:"required"`
}

type podLogsRequest struct {
	Application string `json:"application" validate:"required"`
	Cluster     string `json:"cluster" validate:"required"`
	Bundle      string `json:"bundle" validate:"required"`
	Pod         string `json:"pod" validate:"required"`
}

type analysisRequest struct {
	LogText string `json:"log_text"`
}

type rcaEmailRequest struct {
	Email    string `json:"email" validate:"required"`
	Analysis string `json:"analysis" validate:"required"`
	PodName  string `json:"pod_name"`
}

type trackDownloadRequest struct {
	Filename    string `json:"filename" validate:"required"`
	Application string `json:"app"`
	Cluster     string `json:"cluster"`
	Bundle      string `json:"bundle"`
	Pod         string `json:"pod"`
	SizeBytes   int64  `json:"log_size"`
	ClientIP    string `json:"-"`
	UserAgent   string `json:"-"`
}

type downloadStatsRequest struct {
	ClientIP string
}

// requestDecoder turns a body into one of the request types above.
type requestDecoder struct {
	validate     *validator.Validate
	maxBodyBytes int64
}

func newRequestDecoder(maxBodyBytes int64) *requestDecoder {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return jsonName(f.Tag.Get("json"), f.Name)
	})
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &requestDecoder{validate: v, maxBodyBytes: maxBodyBytes}
}

// readFields accepts a JSON object or an urlencoded or multipart form.
func (d *requestDecoder) readFields(r *http.Request) (fields, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, d.maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == contentTypeJSON {
		f := fields{}
		err := json.NewDecoder(r.Body).Decode(&f)
		var maxErr *http.MaxBytesError
		switch {
		case err == nil:
			return f, nil
		case errors.As(err, &maxErr):
			return nil, &BadRequestErr{Message: "request body too large"}
		case errors.Is(err, io.EOF):
			return f, nil
		default:
			return nil, &BadRequestErr{Message: "failed to unmarshal json"}
		}
	}

	if err := r.ParseMultipartForm(d.maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, &BadRequestErr{Message: "failed to parse form"}
	}
	f := fields{}
	for k, v := range r.Form {
		if len(v) > 0 {
			f[k] = v[0]
		}
	}
	return f, nil
}

// check runs the validate tags and reports every missing field at once.
func (d *requestDecoder) check(request interface{}) error {
	err := d.validate.Struct(request)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return &BadRequestErr{Message: fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", "))}
}

func (d *requestDecoder) decodeAppConfigRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return struct{}{}, nil
}

func (d *requestDecoder) decodePodsRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	f, err := d.readFields(r)
	if err != nil {
		return nil, err
	}
	req := &podsRequest{
		Application: f.str("application"),
		Cluster:     f.str("cluster"),
		Bundle:      f.str("bundle", "testtype"),
	}
	logRequest(ctx, "pods", zap.String("application", req.Application), zap.String("cluster", req.Cluster), zap.String("bundle", req.Bundle))
	return req, d.check(req)
}

func (d *requestDecoder) decodePodLogsRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	f, err := d.readFields(r)
	if err != nil {
		return nil, err
	}
	req := &podLogsRequest{
		Application: f.str("application"),
		Cluster:     f.str("cluster"),
		Bundle:      f.str("bundle", "testtype"),
		Pod:         f.str("pod"),
	}
	logRequest(ctx, "pod logs", zap.String("application", req.Application), zap.String("cluster", req.Cluster),
		zap.String("bundle", req.Bundle), zap.String("pod", req.Pod))
	return req, d.check(req)
}

func (d *requestDecoder) decodeAnalysisRequest(_ context.Context, r *http.Request) (interface{}, error) {
	f, err := d.readFields(r)
	if err != nil {
		return nil, err
	}
	return &analysisRequest{LogText: f.str("log_text")}, nil
}

func (d *requestDecoder) decodeRCAEmailRequest(_ context.Context, r *http.Request) (interface{}, error) {
	f, err := d.readFields(r)
	if err != nil {
		return nil, err
	}
	req := &rcaEmailRequest{
		Email:    f.str("email"),
		Analysis: f.str("analysis"),
		PodName:  f.str("pod_name"),
	}
	return req, d.check(req)
}

func (d *requestDecoder) decodeTrackDownloadRequest(_ context.Context, r *http.Request) (interface{}, error) {
	f, err := d.readFields(r)
	if err != nil {
		return nil, err
	}
	req := &trackDownloadRequest{
		Filename:    f.str("filename"),
		Application: f.str("app", "application"),
		Cluster:     f.str("cluster"),
		Bundle:      f.str("bundle", "testtype"),
		Pod:         f.str("pod"),
		SizeBytes:   downloads.ParseSize(f["log_size"]),
		ClientIP:    downloads.ClientIP(r),
		UserAgent:   r.UserAgent(),
	}
	return req, d.check(req)
}

func (d *requestDecoder) decodeDownloadStatsRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return &downloadStatsRequest{ClientIP: downloads.ClientIP(r)}, nil
}

func logRequest(ctx context.Context, msg string, fs ...zap.Field) {
	sallust.Get(ctx).Debug(msg+" request", fs...)
}

func encodeJSONResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	return writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(code)
	_, err = w.Write(data)
	return err
}

func jsonName(tag, fallback string) string {
	name := strings.SplitN(tag, ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return fallback
	default:
		return name
	}
}
