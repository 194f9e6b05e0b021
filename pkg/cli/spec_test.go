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

package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSpecCmdPrintsResolvedSpec(t *testing.T) {
	out := filepath.Join(t.TempDir(), "resolved.json")
	cmd := specCmd()
	err := cmd.Run(context.Background(), []string{
		"spec", "-n", "data-mover", "--image", "alpine:3.20",
		"-t", "json", "-o", out,
	})
	if err != nil {
		t.Fatalf("spec command failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if tree["NAMESPACE"] != "data-mover" {
		t.Errorf("NAMESPACE = %v", tree["NAMESPACE"])
	}
	if tree["JOB_IMAGE"] != "alpine:3.20" {
		t.Errorf("JOB_IMAGE = %v", tree["JOB_IMAGE"])
	}
}

func TestSpecCmdCamelKeyCase(t *testing.T) {
	out := filepath.Join(t.TempDir(), "resolved.json")
	cmd := specCmd()
	err := cmd.Run(context.Background(), []string{
		"spec", "-n", "data-mover", "--key-case", "camel", "-t", "json", "-o", out,
	})
	if err != nil {
		t.Fatalf("spec command failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if tree["namespace"] != "data-mover" {
		t.Errorf("namespace = %v", tree["namespace"])
	}
	if _, ok := tree["jobTimeout"]; !ok {
		t.Errorf("jobTimeout key missing, keys: %v", keysOf(tree))
	}
	for k := range tree {
		if strings.Contains(k, "_") {
			t.Errorf("snake key %q survived camel conversion", k)
		}
	}
}

func keysOf(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestSpecCmdRejectsUnknownKeyCase(t *testing.T) {
	cmd := specCmd()
	err := cmd.Run(context.Background(), []string{
		"spec", "-n", "data-mover", "--key-case", "kebab",
	})
	if err == nil || !strings.Contains(err.Error(), "unknown key case") {
		t.Errorf("expected unknown key case error, got: %v", err)
	}
}
