// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package synth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fixed = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixed }

func TestSynthesizeIntents(t *testing.T) {
	tcs := []struct {
		Description string
		Pod         string
		Contains    []string
		NotContains []string
	}{
		{
			Description: "error pod",
			Pod:         "shop-smoke-error-pod",
			Contains:    []string{"FATAL", "exited with code 1", "CrashLoopBackOff", "Memory usage: 95%", "CPU usage: 98%"},
			NotContains: []string{"45%"},
		},
		{
			Description: "warning pod",
			Pod:         "shop-smoke-warn-service",
			Contains:    []string{"WARN", "exceeds SLA", "recovered", "Memory usage: 45%", "CPU usage: 25%"},
			NotContains: []string{"FATAL", "ERROR"},
		},
		{
			Description: "normal pod",
			Pod:         "shop-smoke-web-1",
			Contains:    []string{"Health check passed", "Memory usage: 45%"},
			NotContains: []string{"FATAL", "ERROR", "95%"},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			assert := assert.New(t)
			out := New(fixedClock).Synthesize("shop", "eu-1", "smoke", tc.Pod)
			assert.NotEmpty(strings.TrimSpace(out))
			for _, s := range tc.Contains {
				assert.Contains(out, s)
			}
			for _, s := range tc.NotContains {
				assert.NotContains(out, s)
			}
		})
	}
}

func TestSynthesizeRoles(t *testing.T) {
	tcs := []struct {
		Pod      string
		Expected string
	}{
		{Pod: "shop-smoke-nginx-1", Expected: "HTTP server listening"},
		{Pod: "shop-smoke-api-1", Expected: "Connecting to database db.eu-1.internal"},
		{Pod: "shop-smoke-worker-1", Expected: "Subscribed to queue shop-smoke-tasks"},
		{Pod: "shop-smoke-cron", Expected: "Initializing service components"},
	}

	for _, tc := range tcs {
		t.Run(tc.Pod, func(t *testing.T) {
			out := New(fixedClock).Synthesize("shop", "eu-1", "smoke", tc.Pod)
			assert.Contains(t, out, tc.Expected)
		})
	}
}

func TestSynthesizePreamble(t *testing.T) {
	assert := assert.New(t)
	out := New(fixedClock).Synthesize("shop", "eu-1", "smoke", "shop-smoke-web-1")
	lines := strings.Split(out, "\n")

	assert.Equal("2024-05-01 11:59:48 [INFO ] Starting container for pod shop-smoke-web-1", lines[0])
	assert.Contains(out, "Application: shop")
	assert.Contains(out, "Cluster: eu-1")
	assert.Contains(out, "Bundle: smoke")
	assert.Contains(out, "Image: registry.internal/shop:smoke")
	assert.Contains(out, "2024-05-01 12:00:00 [INFO ] Metrics flushed to collector")
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	assert := assert.New(t)
	s := New(fixedClock)
	for _, pod := range []string{"a-web-1", "a-error-pod", "a-warn-service"} {
		assert.Equal(s.Synthesize("a", "c", "b", pod), s.Synthesize("a", "c", "b", pod))
	}

	later := New(func() time.Time { return fixed.Add(time.Hour) })
	assert.NotEqual(s.Synthesize("a", "c", "b", "a-web-1"), later.Synthesize("a", "c", "b", "a-web-1"))
}
