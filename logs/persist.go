// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logs

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// FlatPath is root/pods/{app}-{bundle}-{pod}.log.
func FlatPath(root string, id Identifiers) string {
	return filepath.Join(root, "pods", id.App+"-"+id.Bundle+"-"+id.Pod+".log")
}

// HierarchicalPath is root/{app}/{cluster}/{bundle}/{pod}.log.
func HierarchicalPath(root string, id Identifiers) string {
	return filepath.Join(root, id.App, id.Cluster, id.Bundle, id.Pod+".log")
}

// writeAtomic replaces path with content through a temp file in the same
// directory, so readers never see a partial file.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".logscope-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	success = true
	return nil
}
