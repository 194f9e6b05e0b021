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
	"path/filepath"
	"strconv"
	"strings"

	"github.com/NVIDIA/kubemover/pkg/metrics"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// preflightFreeSpace aborts a download before any data moves when the
// local filesystem cannot hold the remote payload. Directory downloads
// stage a tar archive first, so their requirement is doubled.
func (e *Engine) preflightFreeSpace(ctx context.Context, src Target, localPath string, isDir bool) error {
	if !e.localProbe(localPath) {
		// Network mounts stay usable, but df readings there can lie.
		e.log().Warn("download destination sits on a network mount, free-space check may be unreliable",
			"path", localPath)
	}
	required, err := e.remoteSize(ctx, src, isDir)
	if err != nil {
		e.log().Warn("skipping free-space preflight, remote size unknown", "src", src.String(), "error", err)
		return nil
	}
	if isDir {
		required *= 2
	}

	free, err := e.localFreeSpace(ctx, localPath)
	if err != nil {
		e.log().Warn("skipping free-space preflight, local free space unknown", "path", localPath, "error", err)
		return nil
	}
	if required > free {
		return kmerrors.NewWithContext(kmerrors.ErrCodeResourceExhausted,
			"not enough local disk space for download",
			map[string]any{"required_bytes": required, "free_bytes": free, "path": localPath})
	}

	metrics.TransferBytes.WithLabelValues("download").Add(float64(required))
	e.log().Debug("free-space preflight passed", "required_bytes", required, "free_bytes", free)
	return nil
}

func (e *Engine) remoteSize(ctx context.Context, t Target, isDir bool) (int64, error) {
	cmd := "wc -c < " + quote(t.Path)
	if isDir {
		cmd = "du -sb " + quote(t.Path)
	}
	res, err := e.exec(ctx, t, execOpts{}, cmd)
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(res.TrimmedStdout())
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty size output for %s", t.String())
	}
	size, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing remote size %q: %w", fields[0], err)
	}
	return size, nil
}

// localFreeSpace reports free bytes on the filesystem that will hold
// localPath, walking up to the nearest existing ancestor.
func (e *Engine) localFreeSpace(ctx context.Context, localPath string) (int64, error) {
	probe := localPath
	for !IsPathLocal(probe) {
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	res, err := e.runner.Run(ctx, []string{"df", "--output=avail", "-B1", probe})
	if err != nil {
		return 0, err
	}
	lines := strings.Split(res.TrimmedStdout(), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("unexpected df output %q", res.TrimmedStdout())
	}
	free, err := strconv.ParseInt(strings.TrimSpace(lines[len(lines)-1]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing df output %q: %w", lines[len(lines)-1], err)
	}
	return free, nil
}
