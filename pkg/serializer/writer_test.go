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

package serializer_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/kubemover/pkg/serializer"
)

type jobReport struct {
	Name      string
	Namespace string
	Succeeded int
}

func TestWriterSerializeJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := serializer.NewWriter(serializer.FormatJSON, &buf)

	in := jobReport{Name: "export", Namespace: "data-mover", Succeeded: 1}
	if err := w.Serialize(in); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var out jobReport
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestWriterSerializeYAML(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := serializer.NewWriter(serializer.FormatYAML, &buf)

	in := []jobReport{{Name: "export", Succeeded: 1}, {Name: "import"}}
	if err := w.Serialize(in); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var out []jobReport
	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("failed to unmarshal YAML: %v", err)
	}
	if len(out) != 2 || out[0].Name != "export" {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestWriterSerializeTable(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := serializer.NewWriter(serializer.FormatTable, &buf)

	in := []jobReport{{Name: "export", Succeeded: 1}}
	if err := w.Serialize(in); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "FIELD") || !strings.Contains(output, "VALUE") {
		t.Error("expected table header not found")
	}
	if !strings.Contains(output, "[0].Name") || !strings.Contains(output, "export") {
		t.Errorf("expected flattened keys not found in %q", output)
	}
}

func TestWriterUnsupportedFormat(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := serializer.NewWriter("invalid", &buf)

	err := w.Serialize(jobReport{})
	if err == nil || !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("expected unsupported format error, got: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    serializer.Format
		wantErr bool
	}{
		{in: "", want: serializer.FormatYAML},
		{in: "JSON", want: serializer.FormatJSON},
		{in: " table ", want: serializer.FormatTable},
		{in: "xml", wantErr: true},
	}
	for _, tc := range tests {
		got, err := serializer.ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}
