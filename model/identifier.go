// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingIdentifier is returned when a required identifier is empty.
var ErrMissingIdentifier = errors.New("missing required identifier")

// Field is one named identifier supplied by a caller.
type Field struct {
	Name  string
	Value string
}

// RequireIdentifiers fails with ErrMissingIdentifier naming every field whose
// trimmed value is empty.
func RequireIdentifiers(fields ...Field) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingIdentifier, strings.Join(missing, ", "))
	}
	return nil
}

// UnknownIdentifier is what Sanitize returns for empty input.
const UnknownIdentifier = "unknown"

// Sanitize turns an untrusted identifier into a safe path segment and cache
// key component. Every byte outside [A-Za-z0-9_-] becomes an underscore.
// It must be applied before an identifier is used to build a path, a cache
// key or a file name pattern.
func Sanitize(value string) string {
	if len(value) == 0 {
		return UnknownIdentifier
	}

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Intent is the demo behavior a pod name asks for.
type Intent int

const (
	IntentNormal Intent = iota
	IntentWarning
	IntentError
)

func (i Intent) String() string {
	switch i {
	case IntentWarning:
		return "warning"
	case IntentError:
		return "error"
	default:
		return "normal"
	}
}

// ClassifyPodIntent inspects a pod name. Names containing "error" ask for
// failure content and names containing "warn" ask for degraded content.
// "error" wins when both appear.
func ClassifyPodIntent(name string) Intent {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "error"):
		return IntentError
	case strings.Contains(n, "warn"):
		return IntentWarning
	default:
		return IntentNormal
	}
}

// Role is the kind of workload a pod name suggests.
type Role int

const (
	RoleGeneric Role = iota
	RoleWeb
	RoleAPI
	RoleWorker
)

func (r Role) String() string {
	switch r {
	case RoleWeb:
		return "web"
	case RoleAPI:
		return "api"
	case RoleWorker:
		return "worker"
	default:
		return "generic"
	}
}

var roleMarkers = []struct {
	role    Role
	markers []string
}{
	{role: RoleWeb, markers: []string{"web", "frontend", "nginx", "ui"}},
	{role: RoleAPI, markers: []string{"api", "service", "gateway"}},
	{role: RoleWorker, markers: []string{"worker", "processor", "job"}},
}

// ClassifyPodRole picks the first role whose marker appears in the pod name.
func ClassifyPodRole(name string) Role {
	n := strings.ToLower(name)
	for _, rm := range roleMarkers {
		for _, m := range rm.markers {
			if strings.Contains(n, m) {
				return rm.role
			}
		}
	}
	return RoleGeneric
}
