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

// Package kubectl talks to the cluster exclusively through kubectl
// subprocesses. Server errors are classified from kubectl stderr into the
// structured error taxonomy; no API socket is ever opened directly.
package kubectl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/NVIDIA/kubemover/pkg/shell"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// Server error prefixes kubectl prints for API rejections.
const (
	notFoundPrefix      = "Error from server (NotFound)"
	forbiddenPrefix     = "Error from server (Forbidden)"
	alreadyExistsPrefix = "Error from server (AlreadyExists)"
)

// ErrAlreadyExists marks a create rejected because the object appeared
// concurrently; reconcilers re-read instead of failing.
var ErrAlreadyExists = errors.New("resource already exists")

// Client issues kubectl commands through a shell runner.
type Client struct {
	runner     shell.Runner
	kubeconfig string
	kubeCtx    string
	logger     *slog.Logger
	versions   *VersionCache
}

// Option configures a Client.
type Option func(*Client)

// WithKubeconfig sets an explicit kubeconfig path.
func WithKubeconfig(path string) Option {
	return func(c *Client) { c.kubeconfig = path }
}

// WithContext selects a kubeconfig context.
func WithContext(name string) Option {
	return func(c *Client) { c.kubeCtx = name }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithVersionCache shares a version cache between clients.
func WithVersionCache(cache *VersionCache) Option {
	return func(c *Client) { c.versions = cache }
}

// New returns a Client issuing commands through runner.
func New(runner shell.Runner, opts ...Option) *Client {
	c := &Client{runner: runner, versions: &VersionCache{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// args assembles the base command line. Namespace may be empty for
// cluster-scoped calls.
func (c *Client) args(namespace string, rest ...string) []string {
	argv := []string{"kubectl"}
	if c.kubeconfig != "" {
		argv = append(argv, "--kubeconfig", c.kubeconfig)
	}
	if c.kubeCtx != "" {
		argv = append(argv, "--context", c.kubeCtx)
	}
	if namespace != "" {
		argv = append(argv, "--namespace", namespace)
	}
	return append(argv, rest...)
}

// Run executes a kubectl command, classifying failures.
func (c *Client) Run(ctx context.Context, namespace string, rest ...string) (shell.Result, error) {
	argv := c.args(namespace, rest...)
	res, err := c.runner.Run(ctx, argv, shell.WithEcho(slog.LevelDebug))
	if err != nil {
		return res, classify(argv, res.Stderr, err)
	}
	return res, nil
}

// RunIn is Run with extra per-call options, for stdin/stdout wiring.
func (c *Client) RunIn(ctx context.Context, namespace string, opts []shell.Option, rest ...string) (shell.Result, error) {
	argv := c.args(namespace, rest...)
	res, err := c.runner.Run(ctx, argv, append([]shell.Option{shell.WithEcho(slog.LevelDebug)}, opts...)...)
	if err != nil {
		return res, classify(argv, res.Stderr, err)
	}
	return res, nil
}

// Stream executes a kubectl command, forwarding output line by line.
func (c *Client) Stream(ctx context.Context, namespace string, rest ...string) error {
	argv := c.args(namespace, rest...)
	if err := c.runner.Stream(ctx, argv, shell.WithEcho(slog.LevelInfo)); err != nil {
		var exit *shell.ExitError
		stderr := ""
		if errors.As(err, &exit) {
			stderr = exit.Stderr
		}
		return classify(argv, stderr, err)
	}
	return nil
}

// classify maps kubectl stderr to the structured error taxonomy.
func classify(argv []string, stderr string, cause error) error {
	cmd := strings.Join(argv, " ")
	msg := strings.TrimSpace(stderr)
	switch {
	case strings.HasPrefix(msg, notFoundPrefix):
		return kmerrors.WrapWithContext(kmerrors.ErrCodeNotFound, "resource not found", cause,
			map[string]any{"cmd": cmd, "stderr": msg})
	case strings.HasPrefix(msg, forbiddenPrefix):
		return kmerrors.WrapWithContext(kmerrors.ErrCodePermissionDenied, "request forbidden", cause,
			map[string]any{"cmd": cmd, "stderr": msg})
	case strings.HasPrefix(msg, alreadyExistsPrefix):
		return kmerrors.WrapWithContext(kmerrors.ErrCodeInternal, "resource already exists",
			fmt.Errorf("%w: %w", ErrAlreadyExists, cause),
			map[string]any{"cmd": cmd, "stderr": msg})
	case strings.Contains(msg, "timed out waiting"):
		return kmerrors.WrapWithContext(kmerrors.ErrCodeWaitTimeout, "condition not met in time", cause,
			map[string]any{"cmd": cmd, "stderr": msg})
	default:
		return kmerrors.WrapWithContext(kmerrors.ErrCodeInternal, "kubectl command failed", cause,
			map[string]any{"cmd": cmd, "stderr": msg})
	}
}

// IsAlreadyExists reports whether err stems from a concurrent create race.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
