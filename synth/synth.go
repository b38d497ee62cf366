// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package synth

import (
	"fmt"
	"strings"
	"time"

	"github.com/xmidt-org/logscope/model"
)

const (
	timestampLayout = "2006-01-02 15:04:05"

	levelInfo  = "INFO"
	levelWarn  = "WARN"
	levelError = "ERROR"
	levelFatal = "FATAL"
)

type entry struct {
	level string
	msg   string
}

// Synthesizer produces demo log content for pods that have no real logs.
// Output depends only on the identifiers and the injected clock.
type Synthesizer struct {
	now func() time.Time
}

// New returns a Synthesizer. A nil clock means time.Now.
func New(now func() time.Time) *Synthesizer {
	if now == nil {
		now = time.Now
	}
	return &Synthesizer{now: now}
}

// Synthesize never fails and never returns empty content.
func (s *Synthesizer) Synthesize(app, cluster, bundle, pod string) string {
	var entries []entry
	entries = append(entries, preamble(app, cluster, bundle, pod)...)
	entries = append(entries, startup(model.ClassifyPodRole(pod), app, cluster, bundle)...)

	intent := model.ClassifyPodIntent(pod)
	switch intent {
	case model.IntentError:
		entries = append(entries, failing(pod)...)
	case model.IntentWarning:
		entries = append(entries, degraded()...)
	default:
		entries = append(entries, healthy()...)
	}

	// entries are spread one second apart, ending at the current time
	end := s.now().UTC()
	start := end.Add(-time.Duration(len(entries)-1) * time.Second)

	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%s [%-5s] %s\n", start.Add(time.Duration(i)*time.Second).Format(timestampLayout), e.level, e.msg)
	}
	b.WriteString(footer(intent == model.IntentError))
	return b.String()
}

func preamble(app, cluster, bundle, pod string) []entry {
	return []entry{
		{levelInfo, "Starting container for pod " + pod},
		{levelInfo, "Application: " + app},
		{levelInfo, "Cluster: " + cluster},
		{levelInfo, "Bundle: " + bundle},
		{levelInfo, fmt.Sprintf("Image: registry.internal/%s:%s", app, bundle)},
	}
}

func startup(role model.Role, app, cluster, bundle string) []entry {
	switch role {
	case model.RoleWeb:
		return []entry{
			{levelInfo, "Initializing HTTP server"},
			{levelInfo, "Loading static assets from /srv/www"},
			{levelInfo, "Registered health endpoint /healthz"},
			{levelInfo, "HTTP server listening on 0.0.0.0:8080"},
		}
	case model.RoleAPI:
		return []entry{
			{levelInfo, "Loading API route table"},
			{levelInfo, fmt.Sprintf("Connecting to database db.%s.internal:5432", cluster)},
			{levelInfo, "Database connection pool established (size=20)"},
			{levelInfo, "API server listening on 0.0.0.0:8000"},
		}
	case model.RoleWorker:
		return []entry{
			{levelInfo, "Connecting to message broker"},
			{levelInfo, fmt.Sprintf("Subscribed to queue %s-%s-tasks", app, bundle)},
			{levelInfo, "Worker pool started with 4 workers"},
		}
	default:
		return []entry{
			{levelInfo, "Initializing service components"},
			{levelInfo, "Loaded configuration from environment"},
			{levelInfo, "Service ready"},
		}
	}
}

func failing(pod string) []entry {
	return []entry{
		{levelInfo, "Processing incoming request batch"},
		{levelWarn, "Response latency increased to 850ms"},
		{levelWarn, "Connection pool nearing exhaustion (18/20)"},
		{levelError, "Failed to reach upstream dependency: connection refused"},
		{levelError, "Retry 1/3 failed: connection refused"},
		{levelError, "Retry 3/3 failed: giving up"},
		{levelError, "Unhandled exception in request handler: nil pointer dereference"},
		{levelFatal, "Health check failed repeatedly, shutting down"},
		{levelFatal, "Process exited with code 1"},
		{levelWarn, fmt.Sprintf("Back-off restarting failed container in pod %s (CrashLoopBackOff)", pod)},
	}
}

func degraded() []entry {
	return []entry{
		{levelInfo, "Processing incoming request batch"},
		{levelWarn, "Memory usage at 82% of container limit"},
		{levelWarn, "CPU throttling detected on 2 of 4 cores"},
		{levelWarn, "p99 latency 1200ms exceeds SLA target of 500ms"},
		{levelInfo, "Garbage collection reclaimed 312MB"},
		{levelInfo, "Latency recovered to 180ms"},
	}
}

func healthy() []entry {
	return []entry{
		{levelInfo, "Handled 1245 requests in the last 60s"},
		{levelInfo, "Health check passed"},
		{levelInfo, "Cache hit ratio 94%"},
		{levelInfo, "Metrics flushed to collector"},
	}
}

func footer(elevated bool) string {
	memory, cpu := "45%", "25%"
	if elevated {
		memory, cpu = "95%", "98%"
	}

	var b strings.Builder
	b.WriteString("\n=== Recent Activity Summary ===\n")
	b.WriteString("Uptime: 3h 27m\n")
	b.WriteString("Requests processed: 12480\n")
	fmt.Fprintf(&b, "Memory usage: %s\n", memory)
	fmt.Fprintf(&b, "CPU usage: %s\n", cpu)
	return b.String()
}
