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

// Package transfer moves files and directories between the local
// filesystem and running pods, and between pods, over kubectl exec
// streams. No data path ever touches the API server beyond exec itself.
package transfer

import (
	"strings"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// Target is one endpoint of a transfer. A remote target is written
// `<selector>:<path>` where selector is the kubectl exec argument list
// (pod name, optionally flags like `-c container`); a bare path is local.
// A literal colon in a path is escaped as `\:`.
type Target struct {
	// Selector holds the kubectl exec arguments picking the pod; empty
	// means the local filesystem.
	Selector []string
	Path     string
}

// Remote reports whether the target lives in a pod.
func (t Target) Remote() bool { return len(t.Selector) > 0 }

func (t Target) String() string {
	if !t.Remote() {
		return t.Path
	}
	return strings.Join(t.Selector, " ") + ":" + t.Path
}

// ParseTarget parses a transfer endpoint. Exactly one unescaped colon
// separates selector from path; zero colons means a local path.
func ParseTarget(raw string) (Target, error) {
	if raw == "" {
		return Target{}, kmerrors.New(kmerrors.ErrCodeInvalidRequest, "empty transfer target")
	}
	var colons []int
	for i := 0; i < len(raw); i++ {
		if raw[i] == ':' && (i == 0 || raw[i-1] != '\\') {
			colons = append(colons, i)
		}
	}
	switch len(colons) {
	case 0:
		return Target{Path: unescape(raw)}, nil
	case 1:
		selector := strings.Fields(unescape(raw[:colons[0]]))
		path := unescape(raw[colons[0]+1:])
		if len(selector) == 0 {
			return Target{}, kmerrors.Newf(kmerrors.ErrCodeInvalidRequest,
				"target %q has an empty pod selector", raw)
		}
		if path == "" {
			return Target{}, kmerrors.Newf(kmerrors.ErrCodeInvalidRequest,
				"target %q has an empty remote path", raw)
		}
		return Target{Selector: selector, Path: path}, nil
	default:
		return Target{}, kmerrors.Newf(kmerrors.ErrCodeInvalidRequest,
			"target %q has %d unescaped colons, want at most one (escape with \\:)", raw, len(colons))
	}
}

func unescape(s string) string {
	return strings.ReplaceAll(s, `\:`, ":")
}
