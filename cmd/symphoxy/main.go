// SPDX-License-Identifier: EPL-2.0

// Command symphoxy renders a score live, to a WAV file or with a terminal
// level meter.
//
//	symphoxy -score song.json -mode wav -out song.wav
//	symphoxy -mode live -instrument pad
//	symphoxy                      # interactive
//
// Settings come from SYMPHOXY_* environment variables first and flags
// second. Output modes can be left out of the binary with the nolive,
// nowav and notui build tags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, context.Canceled):
		os.Exit(130)
	default:
		fmt.Fprintln(os.Stderr, "symphoxy:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(backends) == 0 {
		return errors.New("built without any output mode")
	}

	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	initLogger(stderr, opts.debug)

	a, err := newApp(opts)
	if err != nil {
		return err
	}

	if opts.mode == "" {
		return interactive(ctx, a, newPrompter(stdin, stdout))
	}
	b, err := lookupBackend(opts.mode)
	if err != nil {
		return err
	}
	return b.run(ctx, a)
}
