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

package spec

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// Mode gates mutating behavior. It is evaluated once at each entry point;
// callers branch on it instead of re-deriving it mid-flow.
type Mode string

const (
	// ModeDryRun plans but never issues a mutating cluster call.
	ModeDryRun Mode = "dry-run"
	// ModeNormal performs mutations and verifies transfer integrity.
	ModeNormal Mode = "normal"
	// ModeUnsafe performs mutations but skips integrity verification.
	ModeUnsafe Mode = "unsafe"
)

var knownModes = []Mode{ModeDryRun, ModeNormal, ModeUnsafe}

// ParseMode validates a mode name, suggesting the closest known mode for
// near misses.
func ParseMode(value string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(value)))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// Validate reports whether the mode is one of the known values.
func (m Mode) Validate() error {
	for _, known := range knownModes {
		if m == known {
			return nil
		}
	}
	names := make([]string, len(knownModes))
	for i, known := range knownModes {
		names[i] = string(known)
	}
	return kmerrors.Newf(kmerrors.ErrCodeInvalidRequest,
		"unknown mode %q%s", string(m), suggestion(string(m), names))
}

// DryRun reports whether mutating calls must be skipped.
func (m Mode) DryRun() bool { return m == ModeDryRun }

// VerifyIntegrity reports whether transfer checksums are enforced.
func (m Mode) VerifyIntegrity() bool { return m != ModeUnsafe }

func (m Mode) String() string { return string(m) }

// suggestion returns a " (did you mean ...?)" hint when value is within
// edit distance 2 of a candidate, else an empty string.
func suggestion(value string, candidates []string) string {
	best, bestDist := "", 3
	lower := strings.ToLower(value)
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(lower, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
