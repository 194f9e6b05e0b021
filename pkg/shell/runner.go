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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"
	utilexec "k8s.io/utils/exec"
)

// Runner executes a command line. Implementations capture or stream output
// and surface non-zero exits as *ExitError.
type Runner interface {
	// Run executes argv and captures its output.
	Run(ctx context.Context, argv []string, opts ...Option) (Result, error)
	// Stream executes argv, forwarding stdout/stderr line by line to the
	// logger as the process produces them.
	Stream(ctx context.Context, argv []string, opts ...Option) error
}

// Local runs commands as local subprocesses. The exec layer is injectable
// so tests can substitute a scripted implementation; the optional limiter
// paces tight polling loops against the cluster tool.
type Local struct {
	exec    utilexec.Interface
	limiter *rate.Limiter
	logger  *slog.Logger
}

// LocalOption configures a Local runner.
type LocalOption func(*Local)

// WithExec substitutes the subprocess layer.
func WithExec(e utilexec.Interface) LocalOption {
	return func(l *Local) { l.exec = e }
}

// WithRateLimiter paces command starts, e.g. rate.NewLimiter(rate.Every(time.Second), 3).
func WithRateLimiter(lim *rate.Limiter) LocalOption {
	return func(l *Local) { l.limiter = lim }
}

// WithLogger overrides the logger used by Stream and command echo.
func WithLogger(logger *slog.Logger) LocalOption {
	return func(l *Local) { l.logger = logger }
}

// New returns a Local runner backed by os/exec.
func New(opts ...LocalOption) *Local {
	l := &Local{exec: utilexec.New()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// AssertExecutable verifies name resolves to an executable on PATH.
func (l *Local) AssertExecutable(name string) error {
	if _, err := l.exec.LookPath(name); err != nil {
		return fmt.Errorf("command %q not found or not executable: %w", name, err)
	}
	return nil
}

func (l *Local) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return slog.Default()
}

func (l *Local) wait(ctx context.Context) error {
	if l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Run implements Runner.
func (l *Local) Run(ctx context.Context, argv []string, opts ...Option) (Result, error) {
	options := BuildOptions(opts)
	if len(argv) == 0 {
		return Result{}, fmt.Errorf("empty command line")
	}
	if err := l.wait(ctx); err != nil {
		return Result{}, err
	}
	if options.EchoLevel != nil {
		l.log().Log(ctx, *options.EchoLevel, strings.Join(argv, " "))
	}

	cmd := l.exec.CommandContext(ctx, argv[0], argv[1:]...)
	var outBuf, errBuf bytes.Buffer

	if options.Stdin != nil {
		cmd.SetStdin(options.Stdin)
	}
	if options.Stdout != nil {
		cmd.SetStdout(options.Stdout)
	} else {
		cmd.SetStdout(&outBuf)
	}
	cmd.SetStderr(&errBuf)

	err := cmd.Run()
	res := Result{
		Stdout: outBuf.String(),
		Stderr: errBuf.String(),
	}
	if err != nil {
		res.Code = exitCode(err)
		return res, &ExitError{Cmd: strings.Join(argv, " "), Code: res.Code, Stderr: res.Stderr, cause: err}
	}
	return res, nil
}

// Stream implements Runner. Stdout lines log at info, stderr at error.
func (l *Local) Stream(ctx context.Context, argv []string, opts ...Option) error {
	options := BuildOptions(opts)
	if len(argv) == 0 {
		return fmt.Errorf("empty command line")
	}
	if err := l.wait(ctx); err != nil {
		return err
	}
	logger := l.log()
	if options.EchoLevel != nil {
		logger.Log(ctx, *options.EchoLevel, strings.Join(argv, " "))
	}

	cmd := l.exec.CommandContext(ctx, argv[0], argv[1:]...)
	if options.Stdin != nil {
		cmd.SetStdin(options.Stdin)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %q: %w", argv[0], err)
	}

	var stderrTail []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			logger.Error(line)
			stderrTail = append(stderrTail, line)
		}
	}()

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		logger.Info(scanner.Text())
	}
	<-done

	if err := cmd.Wait(); err != nil {
		code := exitCode(err)
		logger.Error("command failed", "cmd", strings.Join(argv, " "), "code", code)
		return &ExitError{
			Cmd:    strings.Join(argv, " "),
			Code:   code,
			Stderr: strings.Join(stderrTail, "\n"),
			cause:  err,
		}
	}
	return nil
}

// Dump runs argv and writes its stdout to outputFile, creating parent
// directories as needed. Stderr lands next to it in <outputFile>.err,
// removed again when empty. Under dry-run callers skip the call entirely.
func Dump(ctx context.Context, r Runner, argv []string, outputFile string) error {
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o750); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputFile, err)
	}
	defer out.Close()

	res, runErr := r.Run(ctx, argv, WithStdout(out))

	errFile := outputFile + ".err"
	if res.Stderr != "" {
		if werr := os.WriteFile(errFile, []byte(res.Stderr), 0o640); werr != nil {
			return fmt.Errorf("writing %s: %w", errFile, werr)
		}
	} else {
		_ = os.Remove(errFile)
	}
	return runErr
}

func exitCode(err error) int {
	var exit utilexec.ExitError
	if ok := asExitError(err, &exit); ok {
		return exit.ExitStatus()
	}
	return -1
}

func asExitError(err error, target *utilexec.ExitError) bool {
	for err != nil {
		if e, ok := err.(utilexec.ExitError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
