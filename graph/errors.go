// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCycle       = errors.New("graph contains a cycle")
	ErrUnknownNode = errors.New("unknown node")
	ErrEmptyGraph  = errors.New("graph has no nodes")
)

// GraphError describes a construction failure.
type GraphError struct {
	Op   string
	Path []string // node names along a cycle, first repeated last
	Err  error
}

func (e *GraphError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("graph %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("graph %s: %v: %s", e.Op, e.Err, strings.Join(e.Path, " -> "))
}

func (e *GraphError) Unwrap() error { return e.Err }
