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

package transfer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/kubemover/pkg/kubectl"
	"github.com/NVIDIA/kubemover/pkg/metrics"
	"github.com/NVIDIA/kubemover/pkg/retry"
	"github.com/NVIDIA/kubemover/pkg/shell"
	"github.com/NVIDIA/kubemover/pkg/spec"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// AttemptCodes records the exit codes of one failed pod-to-pod attempt.
type AttemptCodes struct {
	Src  int
	Dest int
}

// Outcome describes a finished (or exhausted) transfer.
type Outcome struct {
	// Direction is upload, download, or remote.
	Direction string
	// Attempts lists the exit-code pairs of failed pod-to-pod attempts;
	// empty on first-try success.
	Attempts []AttemptCodes
}

// Engine moves data over kubectl exec streams.
type Engine struct {
	kc         *kubectl.Client
	runner     shell.Runner
	namespace  string
	logger     *slog.Logger
	sleep      retry.Sleeper
	tempDir    string
	localProbe func(path string) bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithNamespace scopes exec calls to a namespace.
func WithNamespace(namespace string) Option {
	return func(e *Engine) { e.namespace = namespace }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSleeper substitutes the retry sleeper, for tests.
func WithSleeper(sleep retry.Sleeper) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// WithTempDir overrides the staging directory for pod-to-pod files and
// downloaded archives.
func WithTempDir(dir string) Option {
	return func(e *Engine) { e.tempDir = dir }
}

// WithLocalityProbe substitutes the network-mount detector, for tests.
func WithLocalityProbe(probe func(path string) bool) Option {
	return func(e *Engine) { e.localProbe = probe }
}

// New returns an Engine. kc carries the cluster calls; runner executes
// the local halves (tar, df).
func New(kc *kubectl.Client, runner shell.Runner, opts ...Option) *Engine {
	e := &Engine{
		kc:         kc,
		runner:     runner,
		sleep:      retry.ContextSleep,
		tempDir:    os.TempDir(),
		localProbe: IsPathLocalBestEffort,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

// Transfer moves src to dest. Endpoints follow the Target syntax; at
// least one must be remote. retries bounds pod-to-pod attempts.
func (e *Engine) Transfer(ctx context.Context, src, dest string, mode spec.Mode, retries int) (Outcome, error) {
	s, err := ParseTarget(src)
	if err != nil {
		return Outcome{}, err
	}
	d, err := ParseTarget(dest)
	if err != nil {
		return Outcome{}, err
	}

	switch {
	case !s.Remote() && !d.Remote():
		return Outcome{}, kmerrors.Newf(kmerrors.ErrCodeInvalidRequest,
			"both %q and %q are local, nothing to exec", src, dest)
	case !s.Remote():
		out := Outcome{Direction: "upload"}
		return out, e.finish(ctx, out, mode, s, d, e.upload(ctx, s, d, mode))
	case !d.Remote():
		out := Outcome{Direction: "download"}
		return out, e.finish(ctx, out, mode, s, d, e.download(ctx, s, d, mode))
	default:
		return e.remote(ctx, s, d, mode, retries)
	}
}

// finish verifies integrity on success and bumps the transfer counters.
func (e *Engine) finish(ctx context.Context, out Outcome, mode spec.Mode, src, dest Target, err error) error {
	if err != nil || mode.DryRun() {
		return err
	}
	if mode.VerifyIntegrity() {
		if err := e.verifyTransfer(ctx, src, dest); err != nil {
			return err
		}
	}
	metrics.Transfers.WithLabelValues(out.Direction).Inc()
	return nil
}

func (e *Engine) upload(ctx context.Context, src, dest Target, mode spec.Mode) error {
	info, err := os.Stat(src.Path)
	if err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInvalidRequest, "reading local source", err)
	}
	if mode.DryRun() {
		e.log().Info("dry-run: would upload", "src", src.String(), "dest", dest.String(), "dir", info.IsDir())
		return nil
	}
	if info.IsDir() {
		return e.uploadDir(ctx, src, dest)
	}
	return e.uploadFile(ctx, src.Path, dest)
}

func (e *Engine) uploadFile(ctx context.Context, localPath string, dest Target) error {
	f, err := os.Open(localPath)
	if err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInternal, "opening local source", err)
	}
	defer f.Close()
	cmd := fmt.Sprintf("mkdir -p %s && cat > %s", quote(filepath.Dir(dest.Path)), quote(dest.Path))
	_, err = e.exec(ctx, dest, execOpts{stdin: f}, cmd)
	return err
}

func (e *Engine) uploadDir(ctx context.Context, src, dest Target) error {
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := e.runner.Run(gctx, []string{"tar", "cf", "-", "-C", src.Path, "."}, shell.WithStdout(pw))
		pw.CloseWithError(err)
		return err
	})
	g.Go(func() error {
		cmd := fmt.Sprintf("mkdir -p %s && tar xf - -C %s", quote(dest.Path), quote(dest.Path))
		_, err := e.exec(gctx, dest, execOpts{stdin: pr}, cmd)
		// Closing the read side unblocks the writer when extraction
		// dies early.
		pr.CloseWithError(err)
		return err
	})
	return g.Wait()
}

func (e *Engine) download(ctx context.Context, src, dest Target, mode spec.Mode) error {
	if mode.DryRun() {
		e.log().Info("dry-run: would download", "src", src.String(), "dest", dest.String())
		return nil
	}
	isDir, err := e.remoteIsDir(ctx, src)
	if err != nil {
		return err
	}
	if err := e.preflightFreeSpace(ctx, src, dest.Path, isDir); err != nil {
		return err
	}
	if isDir {
		return e.downloadDir(ctx, src, dest.Path)
	}
	return e.downloadFile(ctx, src, dest.Path)
}

func (e *Engine) downloadFile(ctx context.Context, src Target, localPath string) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o750); err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInternal, "creating local destination dir", err)
	}
	f, err := os.Create(localPath)
	if err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInternal, "creating local destination", err)
	}
	defer f.Close()
	_, err = e.exec(ctx, src, execOpts{stdout: f}, "cat "+quote(src.Path))
	return err
}

// downloadDir stages the remote tree as a local tar archive, then
// unpacks. The archive survives only for the duration of the call.
func (e *Engine) downloadDir(ctx context.Context, src Target, localPath string) error {
	archive := e.tempFile(".tar")
	defer os.Remove(archive)

	f, err := os.Create(archive)
	if err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInternal, "creating archive", err)
	}
	cmd := fmt.Sprintf("tar cf - -C %s .", quote(src.Path))
	_, execErr := e.exec(ctx, src, execOpts{stdout: f}, cmd)
	closeErr := f.Close()
	if execErr != nil {
		return execErr
	}
	if closeErr != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInternal, "writing archive", closeErr)
	}

	if err := os.MkdirAll(localPath, 0o750); err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInternal, "creating local destination dir", err)
	}
	_, err = e.runner.Run(ctx, []string{"tar", "xf", archive, "-C", localPath})
	return err
}

type execOpts struct {
	stdin  io.Reader
	stdout io.Writer
}

// exec runs `sh -c cmd` in the target pod. A stdin reader makes the
// exec interactive.
func (e *Engine) exec(ctx context.Context, t Target, opts execOpts, cmd string) (shell.Result, error) {
	return e.kc.Exec(ctx, e.namespace, kubectl.ExecOptions{
		Target:  t.Selector,
		Stdin:   opts.stdin,
		Stdout:  opts.stdout,
		Command: []string{"sh", "-c", cmd},
	})
}

func (e *Engine) remoteIsDir(ctx context.Context, t Target) (bool, error) {
	res, err := e.exec(ctx, t, execOpts{},
		fmt.Sprintf("if [ -d %s ]; then echo dir; elif [ -e %s ]; then echo file; else echo missing; fi",
			quote(t.Path), quote(t.Path)))
	if err != nil {
		return false, err
	}
	switch res.TrimmedStdout() {
	case "dir":
		return true, nil
	case "file":
		return false, nil
	default:
		return false, kmerrors.Newf(kmerrors.ErrCodeNotFound, "remote path %s not found", t.String())
	}
}

func (e *Engine) tempFile(suffix string) string {
	return filepath.Join(e.tempDir, "kubemover-"+uuid.NewString()+suffix)
}

// quote wraps s in single quotes for `sh -c`, escaping embedded quotes.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
