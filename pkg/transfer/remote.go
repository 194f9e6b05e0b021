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
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/kubemover/pkg/metrics"
	"github.com/NVIDIA/kubemover/pkg/shell"
	"github.com/NVIDIA/kubemover/pkg/spec"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// retryPause separates pod-to-pod attempts.
const retryPause = 2 * time.Second

// remote moves data between two pods through the local host. Files are
// staged on local disk so a failed push never leaves a half-written
// destination visible to the source; directories stream directly.
func (e *Engine) remote(ctx context.Context, src, dest Target, mode spec.Mode, retries int) (Outcome, error) {
	out := Outcome{Direction: "remote"}
	if mode.DryRun() {
		e.log().Info("dry-run: would copy pod to pod", "src", src.String(), "dest", dest.String())
		return out, nil
	}

	isDir, err := e.remoteIsDir(ctx, src)
	if err != nil {
		return out, err
	}

	attempts := max(retries, 1)
	var srcErr, destErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			e.log().Warn("pod-to-pod attempt failed, retrying",
				"attempt", i, "src_code", shell.ExitCode(srcErr), "dest_code", shell.ExitCode(destErr))
			if err := e.sleep(ctx, retryPause); err != nil {
				return out, err
			}
		}
		if isDir {
			srcErr, destErr = e.remoteDir(ctx, src, dest)
		} else {
			srcErr, destErr = e.remoteFile(ctx, src, dest)
		}
		if srcErr == nil && destErr == nil {
			return out, e.finish(ctx, out, mode, src, dest, nil)
		}
		out.Attempts = append(out.Attempts, AttemptCodes{
			Src:  shell.ExitCode(srcErr),
			Dest: shell.ExitCode(destErr),
		})
		if err := ctx.Err(); err != nil {
			return out, err
		}
	}

	metrics.RetriesExhausted.WithLabelValues("transfer").Inc()
	return out, kmerrors.NewWithContext(kmerrors.ErrCodeInternal,
		fmt.Sprintf("pod-to-pod copy failed after %d attempts", attempts),
		map[string]any{"src": src.String(), "dest": dest.String(), "attempts": out.Attempts})
}

// remoteFile pulls the source file into a local temp file, then pushes
// it. The temp file is removed regardless of outcome.
func (e *Engine) remoteFile(ctx context.Context, src, dest Target) (srcErr, destErr error) {
	tmp := e.tempFile("")
	defer os.Remove(tmp)

	f, err := os.Create(tmp)
	if err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInternal, "creating staging file", err), nil
	}
	_, srcErr = e.exec(ctx, src, execOpts{stdout: f}, "cat "+quote(src.Path))
	if closeErr := f.Close(); closeErr != nil && srcErr == nil {
		srcErr = kmerrors.Wrap(kmerrors.ErrCodeInternal, "writing staging file", closeErr)
	}
	if srcErr != nil {
		return srcErr, nil
	}
	return nil, e.uploadFile(ctx, tmp, dest)
}

// remoteDir streams tar output from the source pod straight into the
// destination pod.
func (e *Engine) remoteDir(ctx context.Context, src, dest Target) (srcErr, destErr error) {
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := e.exec(gctx, src, execOpts{stdout: pw}, fmt.Sprintf("tar cf - -C %s .", quote(src.Path)))
		pw.CloseWithError(err)
		srcErr = err
		return err
	})
	g.Go(func() error {
		cmd := fmt.Sprintf("mkdir -p %s && tar xf - -C %s", quote(dest.Path), quote(dest.Path))
		_, err := e.exec(gctx, dest, execOpts{stdin: pr}, cmd)
		pr.CloseWithError(err)
		destErr = err
		return err
	})
	g.Wait() //nolint:errcheck // the per-side errors carry the detail
	return srcErr, destErr
}
