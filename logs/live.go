// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

const (
	// MaxLiveTimeout bounds every live fetch, whatever is configured,
	// including the time spent reaping the killed command.
	MaxLiveTimeout = 30 * time.Second

	defaultLiveCommand = "kubectl"
	defaultTailLines   = 1000

	// liveWaitDelay bounds how long output pipes held by leftover
	// descendants may delay the return after the command is killed.
	liveWaitDelay = time.Second
)

var (
	ErrLiveDisabled = errors.New("live fetch disabled")
	ErrLiveTimeout  = errors.New("live fetch timed out")
)

// LiveSource fetches logs from a running cluster.
type LiveSource interface {
	Fetch(ctx context.Context, id Identifiers) (string, error)
}

// NopSource never finds anything.
type NopSource struct{}

func (NopSource) Fetch(context.Context, Identifiers) (string, error) {
	return "", ErrLiveDisabled
}

// KubectlSource shells out to `kubectl logs`, using the bundle as namespace
// and the cluster as kube context.
type KubectlSource struct {
	Command   string
	TailLines int
	Timeout   time.Duration
}

func (k KubectlSource) Fetch(ctx context.Context, id Identifiers) (string, error) {
	command := k.Command
	if command == "" {
		command = defaultLiveCommand
	}
	tail := k.TailLines
	if tail <= 0 {
		tail = defaultTailLines
	}
	timeout := k.Timeout
	if timeout <= 0 || timeout > MaxLiveTimeout-liveWaitDelay {
		timeout = MaxLiveTimeout - liveWaitDelay
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Values use the --flag=value form and the pod follows "--", so an
	// identifier that starts with a dash is never read as an option.
	cmd := exec.CommandContext(cmdCtx, command,
		"logs",
		"--namespace="+id.Bundle,
		"--context="+id.Cluster,
		"--tail="+strconv.Itoa(tail),
		"--", id.Pod,
	)
	killProcessGroup(cmd)
	cmd.WaitDelay = liveWaitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		return "", ErrLiveTimeout
	}
	if err != nil {
		return "", fmt.Errorf("%s logs: %w: %s", command, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.String(), nil
}
