// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// backend is an output mode compiled into the binary.
type backend struct {
	name        string // -mode value
	label       string // interactive menu entry
	description string
	order       int
	needsPath   bool
	run         func(ctx context.Context, a *app) error
}

var backends []backend

func register(b backend) {
	backends = append(backends, b)
	slices.SortFunc(backends, func(x, y backend) int { return x.order - y.order })
}

func lookupBackend(name string) (backend, error) {
	for _, b := range backends {
		if strings.EqualFold(b.name, name) {
			return b, nil
		}
	}
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = b.name
	}
	return backend{}, fmt.Errorf("unknown mode %q (built with: %s)", name, strings.Join(names, ", "))
}
