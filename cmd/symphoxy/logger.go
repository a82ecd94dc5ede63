// SPDX-License-Identifier: EPL-2.0

package main

import (
	"io"
	"log/slog"
)

// logger is the process-wide logger; defaults to slog.Default() until
// initLogger is called.
var logger = slog.Default()

// initLogger installs a text handler on w and makes it the slog default.
func initLogger(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug, // file:line in debug mode
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}
