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

package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	sigsyaml "sigs.k8s.io/yaml"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// maxRenderSuffix bounds the collision counter before giving up loudly;
// hitting it means the manifests folder needs cleaning.
const maxRenderSuffix = 1000

// Render marshals obj to YAML under folder as <name>.yaml. An existing
// file is never overwritten: the next free <name>-<n>.yaml is used so a
// run's full manifest history survives on disk. Returns the written path.
func Render(obj any, folder, name string) (string, error) {
	data, err := sigsyaml.Marshal(obj)
	if err != nil {
		return "", kmerrors.Wrap(kmerrors.ErrCodeInternal, fmt.Sprintf("marshaling %s manifest", name), err)
	}
	if err := os.MkdirAll(folder, 0o750); err != nil {
		return "", kmerrors.Wrap(kmerrors.ErrCodeInternal, fmt.Sprintf("creating manifests folder %s", folder), err)
	}
	path, err := nextFreePath(folder, name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", kmerrors.Wrap(kmerrors.ErrCodeInternal, fmt.Sprintf("writing %s", path), err)
	}
	return path, nil
}

func nextFreePath(folder, name string) (string, error) {
	path := filepath.Join(folder, name+".yaml")
	if !exists(path) {
		return path, nil
	}
	for i := 1; i <= maxRenderSuffix; i++ {
		candidate := filepath.Join(folder, fmt.Sprintf("%s-%d.yaml", name, i))
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", kmerrors.Newf(kmerrors.ErrCodeResourceExhausted,
		"over %d %s manifests in %s, clean up the folder", maxRenderSuffix, name, folder)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
