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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/NVIDIA/kubemover/pkg/metrics"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// verifyTransfer compares sha256 digests on both endpoints. Every file
// present on the source must exist on the destination with an equal
// digest; extra destination files are ignored.
func (e *Engine) verifyTransfer(ctx context.Context, src, dest Target) error {
	srcDigests, err := e.digests(ctx, src)
	if err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeIntegrity, "hashing source", err)
	}
	destDigests, err := e.digests(ctx, dest)
	if err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeIntegrity, "hashing destination", err)
	}

	var mismatched []string
	for name, want := range srcDigests {
		if got, ok := destDigests[name]; !ok || got != want {
			mismatched = append(mismatched, name)
		}
	}
	if len(mismatched) > 0 {
		metrics.IntegrityFailures.Inc()
		return kmerrors.NewWithContext(kmerrors.ErrCodeIntegrity,
			"digest mismatch after transfer",
			map[string]any{"src": src.String(), "dest": dest.String(), "files": mismatched})
	}
	e.log().Debug("integrity verified", "files", len(srcDigests))
	return nil
}

// digests maps relative file names to sha256 digests. A single file
// maps the empty name to its digest.
func (e *Engine) digests(ctx context.Context, t Target) (map[string]string, error) {
	if t.Remote() {
		return e.remoteDigests(ctx, t)
	}
	return localDigests(t.Path)
}

func (e *Engine) remoteDigests(ctx context.Context, t Target) (map[string]string, error) {
	isDir, err := e.remoteIsDir(ctx, t)
	if err != nil {
		return nil, err
	}
	cmd := "sha256sum " + quote(t.Path)
	if isDir {
		cmd = fmt.Sprintf("cd %s && find . -type f -exec sha256sum {} +", quote(t.Path))
	}
	res, err := e.exec(ctx, t, execOpts{}, cmd)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for _, line := range strings.Split(res.TrimmedStdout(), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := ""
		if isDir {
			name = normalizeRelName(fields[1])
		}
		out[name] = fields[0]
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no digest output for %s", t.String())
	}
	return out, nil
}

func localDigests(path string) (map[string]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	if !info.IsDir() {
		sum, err := sha256File(path)
		if err != nil {
			return nil, err
		}
		out[""] = sum
		return out, nil
	}
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		sum, err := sha256File(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			return err
		}
		out[normalizeRelName(rel)] = sum
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// normalizeRelName strips the "./" prefix find emits so names from
// both endpoints compare equal.
func normalizeRelName(name string) string {
	return strings.TrimPrefix(filepath.ToSlash(name), "./")
}
