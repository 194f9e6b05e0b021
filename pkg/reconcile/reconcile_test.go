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

package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
	"github.com/NVIDIA/kubemover/pkg/kubectl"
	"github.com/NVIDIA/kubemover/pkg/shell/shelltest"
	"github.com/NVIDIA/kubemover/pkg/spec"
)

const notFoundStderr = `Error from server (NotFound): namespaces "data-mover" not found`

func newReconciler(fake *shelltest.Fake, opts ...Option) *Reconciler {
	noSleep := func(ctx context.Context, d time.Duration) error { return nil }
	base := []Option{WithSleeper(noSleep)}
	return New(kubectl.New(fake), append(base, opts...)...)
}

func testSpec(t *testing.T) *spec.Spec {
	t.Helper()
	s := &spec.Spec{
		Namespace:       "data-mover",
		PVCName:         "export-pvc",
		ManifestsFolder: t.TempDir(),
	}
	s.ApplyDefaults()
	return s
}

func TestEnsureNamespace(t *testing.T) {
	t.Parallel()

	t.Run("active namespace is a no-op", func(t *testing.T) {
		t.Parallel()
		fake := &shelltest.Fake{Script: []shelltest.Response{{Stdout: "Active"}}}
		r := newReconciler(fake)
		got, err := r.EnsureNamespace(context.Background(), spec.ModeNormal, "data-mover", "")
		if err != nil || got != "data-mover" {
			t.Fatalf("got (%q, %v)", got, err)
		}
		if len(fake.Calls) != 1 {
			t.Errorf("expected a single read, got %v", fake.CommandLines())
		}
	})

	t.Run("absent namespace is created", func(t *testing.T) {
		t.Parallel()
		fake := &shelltest.Fake{Script: []shelltest.Response{
			{Stderr: notFoundStderr, Code: 1},
			{},
		}}
		r := newReconciler(fake)
		if _, err := r.EnsureNamespace(context.Background(), spec.ModeNormal, "data-mover", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fake.Saw("create namespace data-mover") {
			t.Errorf("create missing: %v", fake.CommandLines())
		}
	})

	t.Run("dry-run creates with client dry-run", func(t *testing.T) {
		t.Parallel()
		fake := &shelltest.Fake{Script: []shelltest.Response{
			{Stderr: notFoundStderr, Code: 1},
			{},
		}}
		r := newReconciler(fake)
		if _, err := r.EnsureNamespace(context.Background(), spec.ModeDryRun, "data-mover", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fake.Saw("--dry-run=client") {
			t.Errorf("dry-run flag missing: %v", fake.CommandLines())
		}
	})

	t.Run("create race re-reads instead of failing", func(t *testing.T) {
		t.Parallel()
		fake := &shelltest.Fake{Script: []shelltest.Response{
			{Stderr: notFoundStderr, Code: 1},
			{Stderr: `Error from server (AlreadyExists): namespaces "data-mover" already exists`, Code: 1},
			{Stdout: "Active"},
		}}
		r := newReconciler(fake)
		if _, err := r.EnsureNamespace(context.Background(), spec.ModeNormal, "data-mover", ""); err != nil {
			t.Fatalf("race should be tolerated, got %v", err)
		}
	})

	t.Run("terminating waits for deletion then recreates", func(t *testing.T) {
		t.Parallel()
		fake := &shelltest.Fake{Script: []shelltest.Response{
			{Stdout: "Terminating"},
			{}, // wait --for=delete
			{Stderr: notFoundStderr, Code: 1},
			{},
		}}
		r := newReconciler(fake)
		if _, err := r.EnsureNamespace(context.Background(), spec.ModeNormal, "data-mover", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fake.Saw("wait namespace data-mover --for=delete --timeout=600s") {
			t.Errorf("delete wait missing: %v", fake.CommandLines())
		}
		if !fake.Saw("create namespace data-mover") {
			t.Errorf("recreate missing: %v", fake.CommandLines())
		}
	})

	t.Run("forbidden tolerated only for the reserved namespace", func(t *testing.T) {
		t.Parallel()
		forbidden := shelltest.Response{
			Stderr: `Error from server (Forbidden): namespaces is forbidden`, Code: 1,
		}

		fake := &shelltest.Fake{Script: []shelltest.Response{forbidden}}
		r := newReconciler(fake)
		if _, err := r.EnsureNamespace(context.Background(), spec.ModeNormal, ReservedNamespace, ""); err != nil {
			t.Errorf("reserved namespace should tolerate forbidden, got %v", err)
		}

		fake = &shelltest.Fake{Script: []shelltest.Response{forbidden}}
		r = newReconciler(fake)
		_, err := r.EnsureNamespace(context.Background(), spec.ModeNormal, "data-mover", "")
		if !kmerrors.IsPermissionDenied(err) {
			t.Errorf("want PERMISSION_DENIED, got %v", err)
		}
	})
}

func TestNamespaceFromFile(t *testing.T) {
	t.Parallel()

	writeFile := func(t *testing.T, name, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), name)
		if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("namespace read from first item", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "configmaps_backup.json",
			`{"items":[{"metadata":{"namespace":"from-items"}}]}`)
		fake := &shelltest.Fake{Script: []shelltest.Response{{Stdout: "Active"}}}
		r := newReconciler(fake)
		got, err := r.EnsureNamespace(context.Background(), spec.ModeNormal, "", path)
		if err != nil || got != "from-items" {
			t.Errorf("got (%q, %v)", got, err)
		}
	})

	t.Run("empty file falls back to filename suffix", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "secrets_data-mover.json", "")
		fake := &shelltest.Fake{Script: []shelltest.Response{{Stdout: "Active"}}}
		r := newReconciler(fake)
		got, err := r.EnsureNamespace(context.Background(), spec.ModeNormal, "", path)
		if err != nil || got != "data-mover" {
			t.Errorf("got (%q, %v)", got, err)
		}
	})

	t.Run("suspect namespace aborts when not confirmed", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "data-mover.json", `{"metadata":{"namespace":"data-mover"}}`)
		fake := &shelltest.Fake{}
		deny := func(string) (bool, error) { return false, nil }
		r := newReconciler(fake, WithConfirm(deny))
		_, err := r.EnsureNamespace(context.Background(), spec.ModeNormal, "", path)
		if err == nil || !strings.Contains(err.Error(), "not confirmed") {
			t.Errorf("want confirmation abort, got %v", err)
		}
		if len(fake.Calls) != 0 {
			t.Errorf("no cluster call should happen before confirmation: %v", fake.CommandLines())
		}
	})
}

func TestEnsurePVC(t *testing.T) {
	t.Parallel()

	t.Run("dry-run stops after namespace", func(t *testing.T) {
		t.Parallel()
		s := testSpec(t)
		s.Mode = spec.ModeDryRun
		fake := &shelltest.Fake{Script: []shelltest.Response{{Stdout: "Active"}}}
		r := newReconciler(fake)
		if err := r.EnsurePVC(context.Background(), s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(fake.Calls) != 1 {
			t.Errorf("dry-run should only read the namespace: %v", fake.CommandLines())
		}
	})

	t.Run("existing bound claim is a no-op", func(t *testing.T) {
		t.Parallel()
		s := testSpec(t)
		fake := &shelltest.Fake{Script: []shelltest.Response{
			{Stdout: "Active"},
			{Stdout: "export-pvc"},
			{Stdout: "Bound"},
		}}
		r := newReconciler(fake)
		if err := r.EnsurePVC(context.Background(), s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fake.Saw("apply") {
			t.Errorf("no apply expected: %v", fake.CommandLines())
		}
	})

	t.Run("absent claim is created then awaited", func(t *testing.T) {
		t.Parallel()
		s := testSpec(t)
		fake := &shelltest.Fake{Script: []shelltest.Response{
			{Stdout: "Active"},
			{Stderr: `Error from server (NotFound): persistentvolumeclaims "export-pvc" not found`, Code: 1},
			{}, // apply
			{Stdout: "Pending"},
			{}, // wait jsonpath Bound
		}}
		r := newReconciler(fake)
		if err := r.EnsurePVC(context.Background(), s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fake.Saw("apply --filename") {
			t.Errorf("apply missing: %v", fake.CommandLines())
		}
		if !fake.Saw("--for=jsonpath={.status.phase}=Bound --timeout=15s") {
			t.Errorf("phase wait missing: %v", fake.CommandLines())
		}
		if _, err := os.Stat(filepath.Join(s.ManifestsFolder, "persistent-volume-claim.yaml")); err != nil {
			t.Errorf("rendered manifest missing: %v", err)
		}
	})

	t.Run("claim deleted mid-wait fails fast", func(t *testing.T) {
		t.Parallel()
		s := testSpec(t)
		fake := &shelltest.Fake{Script: []shelltest.Response{
			{Stdout: "Active"},
			{Stdout: "export-pvc"},
			{Stdout: "Pending"},
			{Stderr: `Error from server (NotFound): persistentvolumeclaims "export-pvc" not found`, Code: 1},
		}}
		r := newReconciler(fake)
		err := r.EnsurePVC(context.Background(), s)
		if !kmerrors.IsNotFound(err) {
			t.Fatalf("want NOT_FOUND, got %v", err)
		}
		waits := 0
		for _, line := range fake.CommandLines() {
			if strings.Contains(line, "wait persistentvolumeclaim") {
				waits++
			}
		}
		if waits != 1 {
			t.Errorf("want a single wait before failing fast, got %d: %v", waits, fake.CommandLines())
		}
	})

	t.Run("phase poll exhaustion surfaces a wait timeout", func(t *testing.T) {
		t.Parallel()
		s := testSpec(t)
		s.PVCDesiredStates = []string{"Bound", "Pending"}
		timedOut := shelltest.Response{Stderr: "error: timed out waiting for the condition", Code: 1}
		fake := &shelltest.Fake{Script: []shelltest.Response{
			{Stdout: "Active"},
			{Stdout: "export-pvc"},
			{Stdout: "Lost"},
			timedOut, timedOut, timedOut, timedOut, // each desired phase, twice
			{Stdout: "Lost"},
		}}
		r := newReconciler(fake)
		err := r.EnsurePVC(context.Background(), s)
		if !kmerrors.IsWaitTimeout(err) {
			t.Fatalf("want WAIT_TIMEOUT, got %v", err)
		}
		waits := 0
		for _, line := range fake.CommandLines() {
			if strings.Contains(line, "wait persistentvolumeclaim") {
				waits++
			}
		}
		if waits != 4 {
			t.Errorf("want each desired phase waited twice (4), got %d", waits)
		}
	})
}

func TestEnsureDaemonSet(t *testing.T) {
	t.Parallel()

	t.Run("converged daemonset is a no-op", func(t *testing.T) {
		t.Parallel()
		s := testSpec(t)
		fake := &shelltest.Fake{Script: []shelltest.Response{
			{Stdout: "Active"},
			{Stdout: `{"desiredNumberScheduled":3,"numberReady":3}`},
		}}
		r := newReconciler(fake)
		if err := r.EnsureDaemonSet(context.Background(), s, []string{"journalctl"}, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("absent daemonset is created and awaited", func(t *testing.T) {
		t.Parallel()
		s := testSpec(t)
		fake := &shelltest.Fake{Script: []shelltest.Response{
			{Stdout: "Active"},
			{Stderr: `Error from server (NotFound): daemonsets.apps "journal-monitor" not found`, Code: 1},
			{}, // create
			{Stdout: `{"desiredNumberScheduled":2,"numberReady":1}`},
			{Stdout: `{"desiredNumberScheduled":2,"numberReady":2}`},
		}}
		r := newReconciler(fake)
		if err := r.EnsureDaemonSet(context.Background(), s, []string{"journalctl"}, []string{"--follow"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fake.Saw("create --filename") {
			t.Errorf("create missing: %v", fake.CommandLines())
		}
	})

	t.Run("non-convergence fails after the fixed budget", func(t *testing.T) {
		t.Parallel()
		s := testSpec(t)
		stuck := shelltest.Response{Stdout: `{"desiredNumberScheduled":2,"numberReady":0}`}
		fake := &shelltest.Fake{Script: []shelltest.Response{
			{Stdout: "Active"},
			stuck, stuck, stuck, stuck,
		}}
		var slept []time.Duration
		recorder := func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}
		r := newReconciler(fake, WithSleeper(recorder))
		err := r.EnsureDaemonSet(context.Background(), s, []string{"journalctl"}, nil)
		if !kmerrors.IsWaitTimeout(err) {
			t.Fatalf("want WAIT_TIMEOUT, got %v", err)
		}
		if len(slept) != 2 {
			t.Fatalf("want 2 sleeps between 3 attempts, got %v", slept)
		}
		for _, d := range slept {
			if d != 10*time.Second {
				t.Errorf("sleep = %v, want 10s", d)
			}
		}
	})
}
