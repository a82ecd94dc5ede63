// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ik5/symphoxy/score"
)

var errNoInput = errors.New("input closed")

type choice struct {
	name        string
	description string
}

// prompter asks questions on a line based terminal.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewScanner(in), out: out}
}

func (p *prompter) line() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errNoInput
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// choose lists options and returns the selected index. An answer matches
// by number or by a prefix of the name or the description. def < 0 means
// an empty answer is refused.
func (p *prompter) choose(desc string, options []choice, def int) (int, error) {
	fmt.Fprintf(p.out, "%s:\n", desc)
	for i, o := range options {
		fmt.Fprintf(p.out, "    %d. %s (%s)\n", i+1, o.name, o.description)
	}
	if def >= 0 {
		fmt.Fprintf(p.out, "Default: %s\n", options[def].name)
	}

	for {
		in, err := p.line()
		if err != nil {
			return -1, err
		}
		in = strings.ToLower(in)
		if in == "" {
			if def >= 0 {
				return def, nil
			}
			fmt.Fprintln(p.out, "Input cannot be empty, please try again.")
			continue
		}
		for i, o := range options {
			if strconv.Itoa(i+1) == in ||
				strings.HasPrefix(strings.ToLower(o.name), in) ||
				strings.HasPrefix(strings.ToLower(o.description), in) {
				return i, nil
			}
		}
		fmt.Fprintln(p.out, "Invalid selection, please try again.")
	}
}

func (p *prompter) rangeInt(ask string, lo, hi int) (int, error) {
	fmt.Fprintf(p.out, "%s (Between %d and %d):\n", ask, lo, hi)
	for {
		in, err := p.line()
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(in)
		if err != nil {
			fmt.Fprintln(p.out, "Invalid input. Please enter a whole number.")
			continue
		}
		if v < lo || v > hi {
			fmt.Fprintf(p.out, "Please enter a value between %d and %d.\n", lo, hi)
			continue
		}
		return v, nil
	}
}

func (p *prompter) positiveFloat(ask string) (float64, error) {
	fmt.Fprintf(p.out, "%s (Between 0.0 and infinity):\n", ask)
	for {
		in, err := p.line()
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(in, 64)
		if err != nil || math.IsNaN(v) {
			fmt.Fprintln(p.out, "Invalid input. Please enter a number.")
			continue
		}
		if v < 0 {
			fmt.Fprintln(p.out, "Please enter a positive value.")
			continue
		}
		return v, nil
	}
}

func (p *prompter) path(ask string) (string, error) {
	fmt.Fprintf(p.out, "%s:\n", ask)
	for {
		in, err := p.line()
		if err != nil {
			return "", err
		}
		abs, err := absolutePath(in)
		if err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		return abs, nil
	}
}

// absolutePath resolves the directory of path, which must exist, and
// joins the file name back on.
func absolutePath(path string) (string, error) {
	if path == "" || strings.HasSuffix(path, string(filepath.Separator)) {
		return "", errors.New("invalid path, please enter a valid file name")
	}
	name := filepath.Base(path)
	if name == "." || name == ".." {
		return "", errors.New("invalid path, please enter a valid file name")
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("cannot resolve directory: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("parent path %s is not a directory, please enter a valid path", dir)
	}
	return filepath.Join(dir, name), nil
}

// interactive asks for a mode and its settings until the user quits or
// input ends.
func interactive(ctx context.Context, a *app, p *prompter) error {
	options := make([]choice, 0, len(backends)+1)
	for _, b := range backends {
		options = append(options, choice{name: b.label, description: b.description})
	}
	options = append(options, choice{name: "Quit", description: "Leave interactive mode"})

	for ctx.Err() == nil {
		idx, err := p.choose("Select an option", options, -1)
		if errors.Is(err, errNoInput) || (err == nil && idx == len(backends)) {
			break
		}
		if err != nil {
			return err
		}
		b := backends[idx]

		bpm, err := p.rangeInt("Tempo in BPM", score.MinBPM, score.MaxBPM)
		if err != nil {
			break
		}
		run := *a
		sc := *a.score
		sc.BPM = float64(bpm)
		run.score = &sc

		if b.needsPath {
			if run.opts.out, err = p.path("Output WAV file"); err != nil {
				break
			}
			secs, err := p.positiveFloat("Maximum length in seconds, 0 for the whole piece")
			if err != nil {
				break
			}
			run.cfg.MaxDuration = time.Duration(secs * float64(time.Second))
		}

		if err := b.run(ctx, &run); err != nil {
			logger.Error("run failed", "mode", b.name, "error", err)
		}
	}

	fmt.Fprintln(p.out, "Exiting interactive mode.")
	return nil
}
