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

package job

import (
	"context"
	"encoding/json"

	batchv1 "k8s.io/api/batch/v1"

	"github.com/NVIDIA/kubemover/pkg/metrics"
	"github.com/NVIDIA/kubemover/pkg/retry"
	"github.com/NVIDIA/kubemover/pkg/spec"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// Terminal reports whether the job finished, either way.
func Terminal(status batchv1.JobStatus) bool {
	return status.Succeeded > 0 || status.Failed > 0
}

// AwaitCompletion blocks until the named job completes. The state machine
// runs Pending (job resource not visible yet), Active (round-robin waits
// on the complete and failed conditions), then Terminal resolution by the
// final status counters. Failed and ambiguous terminal states both raise.
func (l *Launcher) AwaitCompletion(ctx context.Context, s *spec.Spec, name string) error {
	interval := s.WaitInterval.Duration()
	l.log().Info("waiting for job completion",
		"job", name, "namespace", s.Namespace, "timeout", s.JobTimeout.String())
	if s.Mode.DryRun() {
		return nil
	}
	selector := "job-name=" + name

	// Pending: the resource may lag the create call; back off while the
	// read 404s.
	err := retry.Do(ctx, retry.Default(s.Retries), l.sleep, func(ctx context.Context) (bool, error) {
		_, err := l.jobStatus(ctx, s.Namespace, name)
		if err == nil {
			return true, nil
		}
		if kmerrors.IsNotFound(err) {
			l.log().Warn("job not visible yet", "job", name)
			return false, err
		}
		return true, err
	})
	if err != nil {
		if kmerrors.IsNotFound(err) {
			metrics.RetriesExhausted.WithLabelValues("job_visibility").Inc()
		}
		l.kc.Events(ctx, s.Namespace)
		return err
	}

	_ = l.kc.PodSnapshot(ctx, s.Namespace, selector, false)

	// Active: alternate waiting on the two terminal conditions, one
	// wait-interval at a time. A wait timeout just cycles to the other
	// condition; the job's own activeDeadlineSeconds bounds the loop. Any
	// other failure dumps recent namespace events and aborts.
	deadline := l.now().Add(s.JobTimeout.Duration() + 2*interval)
	for condition := "complete"; ; {
		if err := ctx.Err(); err != nil {
			return err
		}
		waitErr := l.kc.Wait(ctx, s.Namespace, "job", name, "condition="+condition, interval)
		if waitErr == nil {
			break
		}
		switch {
		case kmerrors.IsWaitTimeout(waitErr):
			if condition == "complete" {
				condition = "failed"
			} else {
				condition = "complete"
			}
		case kmerrors.IsNotFound(waitErr):
			// Deleted out from under us.
			l.kc.Events(ctx, s.Namespace)
			return waitErr
		default:
			l.kc.Events(ctx, s.Namespace)
			return waitErr
		}

		now := l.now()
		if now.Minute() < 1 && now.Second() < int(interval.Seconds())%60+1 {
			// Hourly breadcrumb that the poller is alive.
			_ = l.kc.PodSnapshot(ctx, s.Namespace, selector, false)
		}
		if now.After(deadline) {
			metrics.JobCompletions.WithLabelValues("timeout").Inc()
			return kmerrors.NewWithContext(kmerrors.ErrCodeWaitTimeout, "job did not finish in time",
				map[string]any{"job": name, "timeout": s.JobTimeout.String()})
		}
	}

	return l.resolve(ctx, s, name, selector)
}

// resolve reads the terminal status, prints recent logs, and maps the
// status counters to the outcome.
func (l *Launcher) resolve(ctx context.Context, s *spec.Spec, name, selector string) error {
	status, err := l.jobStatus(ctx, s.Namespace, name)
	if err != nil {
		return err
	}
	_ = l.kc.Logs(ctx, s.Namespace, selector, 2*s.WaitInterval.Duration())

	statusJSON, _ := json.Marshal(status)
	switch {
	case status.Succeeded > 0:
		l.log().Info("job succeeded", "job", name)
		metrics.JobCompletions.WithLabelValues("succeeded").Inc()
		return nil
	case status.Failed > 0:
		metrics.JobCompletions.WithLabelValues("failed").Inc()
		return kmerrors.NewWithContext(kmerrors.ErrCodeTerminalFailure, "job failed",
			map[string]any{"job": name, "status": string(statusJSON)})
	default:
		l.log().Warn("job finished without success or failure counters",
			"job", name, "status", string(statusJSON))
		metrics.JobCompletions.WithLabelValues("ambiguous").Inc()
		return kmerrors.NewWithContext(kmerrors.ErrCodeTerminalFailure, "job in unexpected terminal state",
			map[string]any{"job": name, "status": string(statusJSON)})
	}
}

func (l *Launcher) jobStatus(ctx context.Context, namespace, name string) (batchv1.JobStatus, error) {
	raw, err := l.kc.JSONPath(ctx, namespace, "job", name, "{.status}")
	if err != nil {
		return batchv1.JobStatus{}, err
	}
	var status batchv1.JobStatus
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &status); err != nil {
			return batchv1.JobStatus{}, kmerrors.Wrap(kmerrors.ErrCodeInternal, "decoding job status", err)
		}
	}
	return status, nil
}
