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

package kubectl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/NVIDIA/kubemover/pkg/shell"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// GetJSON reads one object as JSON into out.
func (c *Client) GetJSON(ctx context.Context, namespace, resource, name string, out any) error {
	res, err := c.Run(ctx, namespace, "get", resource, name, "--output", "json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(res.Stdout), out); err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInternal,
			fmt.Sprintf("decoding %s/%s", resource, name), err)
	}
	return nil
}

// JSONPath reads a single jsonpath expression from an object.
func (c *Client) JSONPath(ctx context.Context, namespace, resource, name, path string) (string, error) {
	res, err := c.Run(ctx, namespace, "get", resource, name, "--output", "jsonpath="+path)
	if err != nil {
		return "", err
	}
	return res.TrimmedStdout(), nil
}

// ListNames lists objects of a kind in `kind/name` form. Optional extra
// arguments narrow the listing (selectors, field selectors).
func (c *Client) ListNames(ctx context.Context, namespace, resource string, extra ...string) ([]string, error) {
	args := append([]string{"get", resource, "--output", "name"}, extra...)
	res, err := c.Run(ctx, namespace, args...)
	if err != nil {
		return nil, err
	}
	out := res.TrimmedStdout()
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// ApplyFile applies a manifest file.
func (c *Client) ApplyFile(ctx context.Context, namespace, path string) error {
	return c.Stream(ctx, namespace, "apply", "--filename", path)
}

// CreateFile creates resources from a manifest file.
func (c *Client) CreateFile(ctx context.Context, namespace, path string) error {
	return c.Stream(ctx, namespace, "create", "--filename", path)
}

// CreateNamespace creates a namespace; clientDryRun validates without
// persisting.
func (c *Client) CreateNamespace(ctx context.Context, name string, clientDryRun bool) error {
	args := []string{"create", "namespace", name}
	if clientDryRun {
		args = append(args, "--dry-run=client")
	}
	return c.Stream(ctx, "", args...)
}

// Delete deletes one object, tolerating absence.
func (c *Client) Delete(ctx context.Context, namespace, resource, name string, extra ...string) error {
	args := append([]string{"delete", resource, name, "--ignore-not-found"}, extra...)
	_, err := c.Run(ctx, namespace, args...)
	return err
}

// Wait blocks until the condition holds or the timeout lapses. forExpr is
// the full --for value, e.g. "condition=complete", "delete",
// "jsonpath={.status.phase}=Bound".
func (c *Client) Wait(ctx context.Context, namespace, resource, name, forExpr string, timeout time.Duration) error {
	_, err := c.Run(ctx, namespace, "wait", resource, name,
		"--for="+forExpr, fmt.Sprintf("--timeout=%ds", int(timeout.Seconds())))
	return err
}

// Logs streams recent logs for pods matching the selector.
func (c *Client) Logs(ctx context.Context, namespace, selector string, since time.Duration) error {
	return c.Stream(ctx, namespace, "logs", "--ignore-errors",
		"--selector="+selector, fmt.Sprintf("--since=%ds", int(since.Seconds())))
}

// PodSnapshot streams the current pod listing for a job selector, the
// liveness breadcrumb the poller prints periodically.
func (c *Client) PodSnapshot(ctx context.Context, namespace, selector string, wide bool) error {
	args := []string{"get", "pods", "--selector=" + selector, "--no-headers"}
	if wide {
		args = append(args, "--output", "wide")
	}
	return c.Stream(ctx, namespace, args...)
}

// ExecOptions shapes a kubectl exec invocation.
type ExecOptions struct {
	// Target selects the pod: the pod name followed by any extra exec
	// arguments, e.g. ["db-0", "--container", "mysql"].
	Target []string
	// Stdin, when set, runs exec interactively (-i) feeding the reader.
	Stdin io.Reader
	// Stdout, when set, receives raw process output instead of the Result.
	Stdout  io.Writer
	Command []string
}

// Exec runs a command inside a running container.
func (c *Client) Exec(ctx context.Context, namespace string, opts ExecOptions) (shell.Result, error) {
	args := []string{"exec"}
	if opts.Stdin != nil {
		args = append(args, "-i")
	}
	args = append(args, opts.Target...)
	args = append(args, "--")
	args = append(args, opts.Command...)

	var shellOpts []shell.Option
	if opts.Stdin != nil {
		shellOpts = append(shellOpts, shell.WithStdin(opts.Stdin))
	}
	if opts.Stdout != nil {
		shellOpts = append(shellOpts, shell.WithStdout(opts.Stdout))
	}
	return c.RunIn(ctx, namespace, shellOpts, args...)
}
