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
	"os"
	"path/filepath"
	"strings"
	"testing"

	batchv1 "k8s.io/api/batch/v1"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
	"github.com/NVIDIA/kubemover/pkg/shell/shelltest"
	"github.com/NVIDIA/kubemover/pkg/version"
)

func TestRunClassifiesServerErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		stderr string
		check  func(error) bool
	}{
		{"not found", "Error from server (NotFound): jobs.batch \"x\" not found", kmerrors.IsNotFound},
		{"forbidden", "Error from server (Forbidden): namespaces \"x\" is forbidden", kmerrors.IsPermissionDenied},
		{"already exists", "Error from server (AlreadyExists): namespaces \"x\" already exists", IsAlreadyExists},
		{"wait timeout", "error: timed out waiting for the condition on jobs/x", kmerrors.IsWaitTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fake := &shelltest.Fake{Script: []shelltest.Response{{Stderr: tc.stderr, Code: 1}}}
			c := New(fake)
			_, err := c.Run(context.Background(), "ns", "get", "job", "x")
			if err == nil {
				t.Fatal("expected error")
			}
			if !tc.check(err) {
				t.Errorf("classification failed for %q: %v", tc.stderr, err)
			}
		})
	}
}

func TestArgsCarryKubeconfigContextNamespace(t *testing.T) {
	t.Parallel()
	fake := &shelltest.Fake{Script: []shelltest.Response{{Stdout: "ok"}}}
	c := New(fake, WithKubeconfig("/tmp/kc"), WithContext("staging"))
	if _, err := c.Run(context.Background(), "data-mover", "get", "pods"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "kubectl --kubeconfig /tmp/kc --context staging --namespace data-mover get pods"
	if got := fake.CommandLines()[0]; got != want {
		t.Errorf("argv = %q, want %q", got, want)
	}
}

func TestGetJSONDecodesTypedObjects(t *testing.T) {
	t.Parallel()
	fake := &shelltest.Fake{Script: []shelltest.Response{{
		Stdout: `{"metadata":{"name":"export"},"status":{"succeeded":1}}`,
	}}}
	c := New(fake)
	var job batchv1.Job
	if err := c.GetJSON(context.Background(), "ns", "job", "export", &job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Name != "export" || job.Status.Succeeded != 1 {
		t.Errorf("decoded job = %+v", job)
	}
}

func TestListNames(t *testing.T) {
	t.Parallel()
	fake := &shelltest.Fake{Script: []shelltest.Response{
		{Stdout: "job.batch/a\njob.batch/b\n"},
		{Stdout: "\n"},
	}}
	c := New(fake)
	names, err := c.ListNames(context.Background(), "ns", "jobs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[1] != "job.batch/b" {
		t.Errorf("names = %v", names)
	}
	empty, err := c.ListNames(context.Background(), "ns", "jobs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty != nil {
		t.Errorf("empty listing should be nil, got %v", empty)
	}
}

func TestDumpEventsWritesFile(t *testing.T) {
	t.Parallel()
	fake := &shelltest.Fake{Script: []shelltest.Response{{
		Stdout: "LAST SEEN   TYPE      REASON\n2m          Warning   FailedScheduling\n",
	}}}
	cache := &VersionCache{}
	cache.Set(version.MustParse("1.28.4"))
	c := New(fake, WithVersionCache(cache))

	out := filepath.Join(t.TempDir(), "diag", "events.txt")
	if err := c.DumpEvents(context.Background(), "ns", out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if !strings.Contains(string(data), "FailedScheduling") {
		t.Errorf("dumped events = %q", string(data))
	}
	if _, err := os.Stat(out + ".err"); err == nil {
		t.Error("empty stderr should not leave a .err file")
	}
	if got, want := fake.CommandLines()[0], "kubectl --namespace ns events"; got != want {
		t.Errorf("argv = %q, want %q", got, want)
	}
}

func TestExecArgvShape(t *testing.T) {
	t.Parallel()
	fake := &shelltest.Fake{Script: []shelltest.Response{{}}}
	c := New(fake)
	_, err := c.Exec(context.Background(), "ns", ExecOptions{
		Target:  []string{"db-0", "--container", "mysql"},
		Stdin:   strings.NewReader("data"),
		Command: []string{"sh", "-c", "cat > /tmp/f"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "kubectl --namespace ns exec -i db-0 --container mysql -- sh -c cat > /tmp/f"
	if got := fake.CommandLines()[0]; got != want {
		t.Errorf("argv = %q, want %q", got, want)
	}
	if fake.Calls[0].Stdin != "data" {
		t.Errorf("stdin = %q", fake.Calls[0].Stdin)
	}
}

func TestVersionCachedAcrossCalls(t *testing.T) {
	t.Parallel()
	fake := &shelltest.Fake{Script: []shelltest.Response{{
		Stdout: `{"clientVersion":{"gitVersion":"v1.28.4"}}`,
	}}}
	c := New(fake)
	for i := 0; i < 3; i++ {
		v, err := c.Version(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Major != 1 || v.Minor != 28 {
			t.Errorf("version = %v", v)
		}
	}
	if len(fake.Calls) != 1 {
		t.Errorf("version fetched %d times, want 1", len(fake.Calls))
	}
}

func TestEventsCommandGatedOnVersion(t *testing.T) {
	t.Parallel()
	cases := []struct {
		version string
		want    string
	}{
		{"1.21.0", "kubectl --namespace ns get events --sort-by=.metadata.creationTimestamp"},
		{"1.24.0", "kubectl --namespace ns alpha events"},
		{"1.28.4", "kubectl --namespace ns events"},
	}
	for _, tc := range cases {
		t.Run(tc.version, func(t *testing.T) {
			t.Parallel()
			fake := &shelltest.Fake{Script: []shelltest.Response{{}}}
			cache := &VersionCache{}
			cache.Set(version.MustParse(tc.version))
			c := New(fake, WithVersionCache(cache))
			c.Events(context.Background(), "ns")
			if got := fake.CommandLines()[0]; got != tc.want {
				t.Errorf("argv = %q, want %q", got, tc.want)
			}
		})
	}
}
