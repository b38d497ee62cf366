// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logs

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopSource(t *testing.T) {
	content, err := NopSource{}.Fetch(context.Background(), testID)
	assert.ErrorIs(t, err, ErrLiveDisabled)
	assert.Empty(t, content)
}

func TestKubectlSourceArguments(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}

	tcs := []struct {
		Description string
		ID          Identifiers
		Expected    string
	}{
		{
			Description: "plain identifiers",
			ID:          testID,
			Expected:    "logs --namespace=smoke --context=eu-1 --tail=5 -- web-1\n",
		},
		{
			Description: "identifiers that look like flags",
			ID:          Identifiers{App: "shop", Cluster: "--kubeconfig", Bundle: "-A", Pod: "--all-namespaces"},
			Expected:    "logs --namespace=-A --context=--kubeconfig --tail=5 -- --all-namespaces\n",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.Description, func(t *testing.T) {
			src := KubectlSource{Command: "echo", TailLines: 5}
			content, err := src.Fetch(context.Background(), tc.ID)
			assert.NoError(t, err)
			assert.Equal(t, tc.Expected, content)
		})
	}
}

func TestKubectlSourceMissingCommand(t *testing.T) {
	src := KubectlSource{Command: "logscope-no-such-binary"}
	content, err := src.Fetch(context.Background(), testID)
	assert.Error(t, err)
	assert.Empty(t, content)
}

func TestKubectlSourceTimeoutIsHard(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a posix shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	// The background sleep inherits stdout and stderr and outlives the
	// shell unless the whole process group is killed.
	script := filepath.Join(t.TempDir(), "kubectl")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nsleep 20 &\nsleep 20\n"), 0o755))

	src := KubectlSource{Command: script, Timeout: 200 * time.Millisecond}
	start := time.Now()
	content, err := src.Fetch(context.Background(), testID)
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrLiveTimeout)
	assert.Empty(t, content)
	assert.Less(t, elapsed, 200*time.Millisecond+liveWaitDelay+time.Second)
}
