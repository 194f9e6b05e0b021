// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shell

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Result holds the captured output of a completed command.
type Result struct {
	Stdout string
	Stderr string
	// Code is non-zero only when the command failed; the accompanying error
	// is an *ExitError carrying the same value.
	Code int
}

// TrimmedStdout returns stdout with surrounding whitespace removed.
func (r Result) TrimmedStdout() string {
	return strings.TrimSpace(r.Stdout)
}

// ExitError reports a command that started but exited non-zero.
type ExitError struct {
	Cmd    string
	Code   int
	Stderr string
	cause  error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: exit code %d: %s", e.Cmd, e.Code, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("%s: exit code %d", e.Cmd, e.Code)
}

// Unwrap returns the underlying exec error.
func (e *ExitError) Unwrap() error { return e.cause }

// ExitCode extracts the process exit code from err, or -1 when err carries
// none (start failure, cancellation). A nil err reports 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return -1
}

// Options collects per-invocation settings.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	// EchoLevel, when set, logs the command line before running it.
	EchoLevel *slog.Level
}

// Option mutates Options.
type Option func(*Options)

// WithStdin feeds the process stdin from r.
func WithStdin(r io.Reader) Option {
	return func(o *Options) { o.Stdin = r }
}

// WithStdout redirects stdout to w instead of capturing it into Result.
func WithStdout(w io.Writer) Option {
	return func(o *Options) { o.Stdout = w }
}

// WithEcho logs the command line at the given level before execution.
func WithEcho(level slog.Level) Option {
	return func(o *Options) { o.EchoLevel = &level }
}

// BuildOptions folds opts into a single Options value. Exported so fake
// runners honor the same settings as Local.
func BuildOptions(opts []Option) Options {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
