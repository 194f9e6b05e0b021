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
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/NVIDIA/kubemover/pkg/kubectl"
	"github.com/NVIDIA/kubemover/pkg/spec"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// terminatingDeleteTimeout bounds the wait for a namespace stuck in
// Terminating before recreating it.
const terminatingDeleteTimeout = 600 * time.Second

// EnsureNamespace converges the namespace, creating it when absent. When
// sourceFile is set the namespace name is derived from the file's content
// and the explicit name is ignored. Returns the effective namespace.
func (r *Reconciler) EnsureNamespace(ctx context.Context, mode spec.Mode, namespace, sourceFile string) (string, error) {
	if sourceFile != "" {
		derived, err := r.namespaceFromFile(sourceFile, mode)
		if err != nil {
			return "", err
		}
		namespace = derived
	}
	if namespace == "" {
		return "", kmerrors.New(kmerrors.ErrCodeInvalidRequest, "namespace not specified")
	}
	return namespace, r.ensureNamespace(ctx, mode, namespace, true)
}

func (r *Reconciler) ensureNamespace(ctx context.Context, mode spec.Mode, namespace string, allowRecreate bool) error {
	phase, err := r.kc.JSONPath(ctx, "", "namespace", namespace, "{.status.phase}")
	switch {
	case err == nil:
		switch phase {
		case "Active", "":
			return nil
		case "Terminating":
			if !allowRecreate {
				return kmerrors.Newf(kmerrors.ErrCodeWaitTimeout,
					"namespace %s still terminating", namespace)
			}
			r.log().Warn("namespace is terminating, waiting for deletion", "namespace", namespace)
			if err := r.kc.Wait(ctx, "", "namespace", namespace, "delete", terminatingDeleteTimeout); err != nil &&
				!kmerrors.IsNotFound(err) {
				return err
			}
			return r.ensureNamespace(ctx, mode, namespace, false)
		default:
			return kmerrors.NewWithContext(kmerrors.ErrCodeInternal, "namespace in unexpected phase",
				map[string]any{"namespace": namespace, "phase": phase})
		}
	case kmerrors.IsNotFound(err):
		return r.createNamespace(ctx, mode, namespace)
	case kmerrors.IsPermissionDenied(err):
		// Reading may be forbidden while creating jobs is still allowed,
		// but only the reserved tenant namespace earns that benefit.
		if namespace == ReservedNamespace {
			r.log().Warn("namespace read forbidden, proceeding", "namespace", namespace)
			return nil
		}
		return err
	default:
		return err
	}
}

func (r *Reconciler) createNamespace(ctx context.Context, mode spec.Mode, namespace string) error {
	r.log().Info("creating namespace", "namespace", namespace, "mode", mode.String())
	err := r.kc.CreateNamespace(ctx, namespace, mode.DryRun())
	if err == nil {
		return nil
	}
	if kubectl.IsAlreadyExists(err) {
		// Lost the create race; the object exists now, re-read it.
		r.log().Info("namespace appeared concurrently", "namespace", namespace)
		return r.ensureNamespace(ctx, mode, namespace, false)
	}
	return err
}

// namespaceFromFile derives a namespace from a dump file: the first
// object's metadata.namespace, falling back to the filename-stem suffix
// after the last underscore. A derived name equal to the whole stem is
// suspect and requires operator confirmation.
func (r *Reconciler) namespaceFromFile(path string, mode spec.Mode) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(stem, "_")
	fallback := parts[len(parts)-1]

	namespace := ""
	data, err := os.ReadFile(path)
	if err != nil {
		return "", kmerrors.Wrap(kmerrors.ErrCodeInvalidRequest, "reading namespace source file", err)
	}
	if len(data) == 0 {
		r.log().Warn("namespace source file is empty", "file", path)
	} else {
		var doc struct {
			Metadata struct {
				Namespace string `json:"namespace"`
			} `json:"metadata"`
			Items []struct {
				Metadata struct {
					Namespace string `json:"namespace"`
				} `json:"metadata"`
			} `json:"items"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			r.log().Warn("namespace source file is not JSON", "file", path, "error", err)
		} else if len(doc.Items) > 0 {
			namespace = doc.Items[0].Metadata.Namespace
		} else {
			namespace = doc.Metadata.Namespace
		}
	}
	if namespace == "" {
		namespace = fallback
	}

	if namespace == stem {
		r.log().Warn("inferred namespace equals filename, which is suspect", "namespace", namespace)
		if mode == spec.ModeNormal && r.confirm != nil {
			ok, err := r.confirm("Namespace will be created if not present. Continue?")
			if err != nil {
				return "", kmerrors.Wrap(kmerrors.ErrCodeInternal, "confirmation failed", err)
			}
			if !ok {
				return "", kmerrors.Newf(kmerrors.ErrCodeInvalidRequest,
					"aborted: namespace %q not confirmed", namespace)
			}
		}
	}
	return namespace, nil
}
