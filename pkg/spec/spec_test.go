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
	"strings"
	"testing"
	"time"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

func TestParseAppliesDefaults(t *testing.T) {
	t.Parallel()
	s, err := Parse([]byte("NAMESPACE: data-mover\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.WaitInterval.Duration() != 30*time.Second {
		t.Errorf("WaitInterval = %v, want 30s", s.WaitInterval.Duration())
	}
	if s.Retries != 6 {
		t.Errorf("Retries = %d, want 6", s.Retries)
	}
	if s.JobTimeout.Duration() != time.Hour {
		t.Errorf("JobTimeout = %v, want 1h", s.JobTimeout.Duration())
	}
	if s.JobImage != "busybox:stable" {
		t.Errorf("JobImage = %q", s.JobImage)
	}
	if s.Mode != ModeNormal {
		t.Errorf("Mode = %q, want normal", s.Mode)
	}
	if got := s.DesiredPVCPhases(); len(got) != 1 || got[0] != "Bound" {
		t.Errorf("DesiredPVCPhases = %v, want [Bound]", got)
	}
}

func TestParseDurationsAndOverrides(t *testing.T) {
	t.Parallel()
	doc := `
NAMESPACE: data-mover
JOB_TIMEOUT: 2h
WAIT_INTERVAL: 45
RETRIES: 3
MODE: dry-run
PERSISTENT_VOLUME_CLAIM_DESIRED_STATES: [Pending, Bound]
DISK_REQUIRED: 10Gi
`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.JobTimeout.Duration() != 2*time.Hour {
		t.Errorf("JobTimeout = %v", s.JobTimeout.Duration())
	}
	if s.WaitInterval.Duration() != 45*time.Second {
		t.Errorf("bare int should parse as seconds, got %v", s.WaitInterval.Duration())
	}
	if !s.Mode.DryRun() {
		t.Error("Mode should be dry-run")
	}
	if got := s.DesiredPVCPhases(); len(got) != 2 || got[0] != "Pending" {
		t.Errorf("DesiredPVCPhases = %v", got)
	}
	if q := s.DiskQuantity(); q.String() != "10Gi" {
		t.Errorf("DiskQuantity = %v", q.String())
	}
}

func TestSingularDesiredStateWins(t *testing.T) {
	t.Parallel()
	doc := `
NAMESPACE: data-mover
PERSISTENT_VOLUME_CLAIM_DESIRED_STATES: [Pending, Bound]
PERSISTENT_VOLUME_CLAIM_DESIRED_STATE: Lost
`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.DesiredPVCPhases(); len(got) != 1 || got[0] != "Lost" {
		t.Errorf("DesiredPVCPhases = %v, want [Lost]", got)
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"missing namespace", "MODE: normal\n", "NAMESPACE"},
		{"bad mode", "NAMESPACE: x\nMODE: nromal\n", `did you mean "normal"`},
		{"bad phase", "NAMESPACE: x\nPERSISTENT_VOLUME_CLAIM_DESIRED_STATE: Buond\n", `did you mean "Bound"`},
		{"bad quantity", "NAMESPACE: x\nDISK_REQUIRED: lots\n", "DISK_REQUIRED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if kmerrors.CodeOf(err) != kmerrors.ErrCodeInvalidRequest {
				t.Errorf("code = %v, want INVALID_REQUEST", kmerrors.CodeOf(err))
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q missing %q", err.Error(), tc.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	if m, err := ParseMode(" Normal "); err != nil || m != ModeNormal {
		t.Errorf("ParseMode(Normal) = (%v, %v)", m, err)
	}
	if m, _ := ParseMode("unsafe"); m.VerifyIntegrity() {
		t.Error("unsafe mode should skip integrity verification")
	}
	if _, err := ParseMode("wet-run"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
