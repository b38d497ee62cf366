// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package logs

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

const dateSuffixLayout = "20060102"

// Identifiers are the sanitized path components of a log request.
type Identifiers struct {
	App     string
	Cluster string
	Bundle  string
	Pod     string
}

// Directories lists the search directories under root, most general first.
func Directories(root string, id Identifiers) []string {
	return []string{
		root,
		filepath.Join(root, id.App),
		filepath.Join(root, id.Cluster),
		filepath.Join(root, id.Bundle),
		filepath.Join(root, id.App, id.Cluster),
		filepath.Join(root, id.App, id.Bundle),
		filepath.Join(root, id.Cluster, id.Bundle),
		filepath.Join(root, id.App, id.Cluster, id.Bundle),
		filepath.Join(root, "kubernetes", id.Cluster),
		filepath.Join(root, "pods"),
	}
}

// Filenames lists the file names tried in every directory, in order.
func Filenames(id Identifiers, day time.Time) []string {
	date := day.Format(dateSuffixLayout)
	return []string{
		id.Pod + ".log",
		id.App + "-" + id.Pod + ".log",
		id.Bundle + "-" + id.Pod + ".log",
		id.App + "-" + id.Bundle + "-" + id.Pod + ".log",
		id.Cluster + "-" + id.Bundle + "-" + id.Pod + ".log",
		id.App + "-" + id.Cluster + "-" + id.Bundle + "-" + id.Pod + ".log",
		id.Pod + "-" + date + ".log",
		id.App + "-" + id.Bundle + "-" + id.Pod + "-" + date + ".log",
		id.Pod + "_" + date + ".log",
		id.App + "_" + id.Pod + ".log",
		id.App + "_" + id.Bundle + "_" + id.Pod + ".log",
		id.App + "_" + id.Cluster + "_" + id.Bundle + "_" + id.Pod + ".log",
	}
}

// Candidates is every directory crossed with every filename, directories
// outer. Duplicate paths keep their first position.
func Candidates(root string, id Identifiers, day time.Time) []string {
	dirs := Directories(root, id)
	names := Filenames(id, day)

	seen := make(map[string]struct{}, len(dirs)*len(names))
	paths := make([]string, 0, len(dirs)*len(names))
	for _, d := range dirs {
		for _, n := range names {
			p := filepath.Join(d, n)
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}
	return paths
}

// search returns the first usable candidate.
func search(root string, id Identifiers, day time.Time) (path, content string, found bool) {
	for _, p := range Candidates(root, id, day) {
		if content, ok := readCandidate(p); ok {
			return p, content, true
		}
	}
	return "", "", false
}

// readCandidate accepts a regular, non-empty file holding valid UTF-8 with
// at least one non-space character.
func readCandidate(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil || !utf8.Valid(data) {
		return "", false
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", false
	}
	return string(data), true
}
