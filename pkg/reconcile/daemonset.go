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
	"time"

	"github.com/NVIDIA/kubemover/pkg/manifest"
	"github.com/NVIDIA/kubemover/pkg/retry"
	"github.com/NVIDIA/kubemover/pkg/spec"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// DaemonSet convergence is a fixed short budget, not the job poller's
// bounded exponential wait: a monitor that cannot schedule within half a
// minute will not fix itself by waiting longer.
const (
	daemonSetConvergeAttempts = 3
	daemonSetConvergeInterval = 10 * time.Second
)

type daemonSetStatus struct {
	DesiredNumberScheduled int32 `json:"desiredNumberScheduled"`
	NumberReady            int32 `json:"numberReady"`
}

// EnsureDaemonSet converges the journal-monitor DaemonSet: create when
// absent, then wait for every scheduled pod to report ready.
func (r *Reconciler) EnsureDaemonSet(ctx context.Context, s *spec.Spec, command, args []string) error {
	if _, err := r.EnsureNamespace(ctx, s.Mode, s.Namespace, ""); err != nil {
		return err
	}

	status, err := r.daemonSetStatus(ctx, s)
	if kmerrors.IsNotFound(err) {
		r.log().Info("daemonset not found, creating",
			"daemonset", s.DaemonSetName, "namespace", s.Namespace)
		if s.Mode.DryRun() {
			return nil
		}
		path, rerr := manifest.Render(manifest.DaemonSet(s, command, args), s.ManifestsFolder, manifest.DaemonSetManifestName)
		if rerr != nil {
			return rerr
		}
		if cerr := r.kc.CreateFile(ctx, s.Namespace, path); cerr != nil {
			return cerr
		}
		status, err = r.daemonSetStatus(ctx, s)
	}
	if err != nil {
		return err
	}
	if s.Mode.DryRun() {
		return nil
	}
	if status.DesiredNumberScheduled == status.NumberReady {
		return nil
	}

	r.log().Info("waiting for daemonset convergence", "daemonset", s.DaemonSetName,
		"desired", status.DesiredNumberScheduled, "ready", status.NumberReady)
	return retry.Do(ctx, retry.Fixed(daemonSetConvergeAttempts, daemonSetConvergeInterval), r.sleep,
		func(ctx context.Context) (bool, error) {
			status, err := r.daemonSetStatus(ctx, s)
			if err != nil {
				return true, err
			}
			if status.DesiredNumberScheduled == status.NumberReady {
				return true, nil
			}
			return false, kmerrors.NewWithContext(kmerrors.ErrCodeWaitTimeout, "daemonset not ready",
				map[string]any{
					"daemonset": s.DaemonSetName,
					"desired":   status.DesiredNumberScheduled,
					"ready":     status.NumberReady,
				})
		})
}

func (r *Reconciler) daemonSetStatus(ctx context.Context, s *spec.Spec) (daemonSetStatus, error) {
	raw, err := r.kc.JSONPath(ctx, s.Namespace, "daemonset", s.DaemonSetName, "{.status}")
	if err != nil {
		return daemonSetStatus{}, err
	}
	var status daemonSetStatus
	if err := json.Unmarshal([]byte(raw), &status); err != nil {
		return daemonSetStatus{}, kmerrors.Wrap(kmerrors.ErrCodeInternal, "decoding daemonset status", err)
	}
	return status, nil
}
