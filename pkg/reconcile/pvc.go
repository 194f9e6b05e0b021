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
	"slices"
	"strings"
	"time"

	"github.com/NVIDIA/kubemover/pkg/manifest"
	"github.com/NVIDIA/kubemover/pkg/spec"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// pvcPhaseWaitTimeout is short on purpose: each desired phase is polled
// in turn, twice, rather than one long wait on a single phase.
const pvcPhaseWaitTimeout = 15 * time.Second

// EnsurePVC converges the claim: namespace first, create when absent,
// then block until the claim reaches one of the desired phases.
func (r *Reconciler) EnsurePVC(ctx context.Context, s *spec.Spec) error {
	if _, err := r.EnsureNamespace(ctx, s.Mode, s.Namespace, ""); err != nil {
		return err
	}
	if s.Mode.DryRun() {
		r.log().Info("dry-run: skipping claim creation", "pvc", s.PVCName, "namespace", s.Namespace)
		return nil
	}

	_, err := r.kc.JSONPath(ctx, s.Namespace, "persistentvolumeclaim", s.PVCName, "{.metadata.name}")
	switch {
	case err == nil:
		r.log().Debug("claim exists, skipping creation", "pvc", s.PVCName)
	case kmerrors.IsNotFound(err):
		if err := r.createPVC(ctx, s); err != nil {
			return err
		}
	default:
		return err
	}
	return r.awaitPVCPhase(ctx, s)
}

func (r *Reconciler) createPVC(ctx context.Context, s *spec.Spec) error {
	r.log().Info("creating persistent volume claim", "pvc", s.PVCName, "namespace", s.Namespace)
	path, err := manifest.Render(manifest.PVC(s), s.ManifestsFolder, manifest.PVCManifestName)
	if err != nil {
		return err
	}
	err = r.kc.ApplyFile(ctx, s.Namespace, path)
	if err != nil && strings.Contains(err.Error(), "terminated") {
		// Apply raced a deleting predecessor; one re-apply settles it.
		r.log().Warn("apply hit a terminating claim, retrying once", "pvc", s.PVCName)
		err = r.kc.ApplyFile(ctx, s.Namespace, path)
	}
	return err
}

func (r *Reconciler) awaitPVCPhase(ctx context.Context, s *spec.Spec) error {
	desired := s.DesiredPVCPhases()
	// Read before waiting: on old clusters `kubectl wait --for=jsonpath`
	// errors out for claims already in the desired phase.
	phase, err := r.kc.JSONPath(ctx, s.Namespace, "persistentvolumeclaim", s.PVCName, "{.status.phase}")
	if err != nil {
		return err
	}
	if slices.Contains(desired, phase) {
		return nil
	}
	r.log().Warn("claim not in a desired phase yet",
		"pvc", s.PVCName, "phase", phase, "desired", strings.Join(desired, " "))

	// Each phase twice: single-phase waits can miss a transition that
	// lands between two polls.
	for _, want := range slices.Concat(desired, desired) {
		err := r.kc.Wait(ctx, s.Namespace, "persistentvolumeclaim", s.PVCName,
			"jsonpath={.status.phase}="+want, pvcPhaseWaitTimeout)
		if err == nil {
			r.log().Info("claim reached desired phase", "pvc", s.PVCName, "phase", want)
			return nil
		}
		if kmerrors.IsNotFound(err) {
			// Deleted out from under us; no phase will ever arrive.
			return err
		}
	}
	final, _ := r.kc.JSONPath(ctx, s.Namespace, "persistentvolumeclaim", s.PVCName, "{.status.phase}")
	return kmerrors.NewWithContext(kmerrors.ErrCodeWaitTimeout, "claim never reached a desired phase",
		map[string]any{"pvc": s.PVCName, "phase": final, "desired": desired})
}
