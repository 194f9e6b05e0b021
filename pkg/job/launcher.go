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

// Package job launches one-liner batch jobs and awaits their completion.
//
// Intended flow: ensure namespace, ensure claim, create job, redact the
// saved manifest, await completion.
package job

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/distribution/reference"

	"github.com/NVIDIA/kubemover/pkg/kubectl"
	"github.com/NVIDIA/kubemover/pkg/manifest"
	"github.com/NVIDIA/kubemover/pkg/metrics"
	"github.com/NVIDIA/kubemover/pkg/reconcile"
	"github.com/NVIDIA/kubemover/pkg/retry"
	"github.com/NVIDIA/kubemover/pkg/spec"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// maxNameCollisions bounds the suffix scan; more collisions than this
// means the namespace needs cleaning, not another suffix.
const maxNameCollisions = 1000

// Image pulls for Always-policy jobs launched in bulk hammer the
// registry; each submit waits a fixed floor plus a random share.
const (
	pullJitterFloor = 2 * time.Second
	pullJitterSpan  = 3 * time.Second
)

// Launcher creates jobs and polls them to completion.
type Launcher struct {
	kc     *kubectl.Client
	rec    *reconcile.Reconciler
	logger *slog.Logger
	sleep  retry.Sleeper
	now    func() time.Time
	randN  func(n int64) int64
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Launcher) { l.logger = logger }
}

// WithSleeper substitutes the sleeper, for tests.
func WithSleeper(sleep retry.Sleeper) Option {
	return func(l *Launcher) { l.sleep = sleep }
}

// WithClock substitutes the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Launcher) { l.now = now }
}

// WithRand substitutes the jitter source, for tests.
func WithRand(randN func(n int64) int64) Option {
	return func(l *Launcher) { l.randN = randN }
}

// New returns a Launcher issuing commands through kc and converging
// prerequisites through rec.
func New(kc *kubectl.Client, rec *reconcile.Reconciler, opts ...Option) *Launcher {
	l := &Launcher{
		kc:    kc,
		rec:   rec,
		sleep: retry.ContextSleep,
		now:   time.Now,
		randN: rand.Int63n,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Launcher) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return slog.Default()
}

// CreateOneLinerJob ensures the claim, then creates a job running command
// under `sh -c` in a container named containerName. Returns the
// collision-resolved job name.
func (l *Launcher) CreateOneLinerJob(ctx context.Context, s *spec.Spec, command, containerName string, awaitCompletion bool) (string, error) {
	if err := l.validateImage(s.JobImage); err != nil {
		return "", err
	}
	if err := l.rec.EnsurePVC(ctx, s); err != nil {
		return "", err
	}

	base := s.JobName
	if base == "" {
		base = containerName
	}
	name, err := l.resolveJobName(ctx, s, base)
	if err != nil {
		return "", err
	}

	if s.Mode.DryRun() {
		l.log().Info("dry-run: skipping job creation",
			"job", name, "namespace", s.Namespace, "command", command)
		return name, nil
	}

	run := *s
	run.JobName = name
	job := manifest.Job(&run, name, []string{"sh", "-c", command})
	if s.ContainerName == "" {
		job.Spec.Template.Spec.Containers[0].Name = containerName
	}
	path, err := manifest.Render(job, s.ManifestsFolder, containerName)
	if err != nil {
		return "", err
	}

	if err := l.pullStormJitter(ctx, s); err != nil {
		return "", err
	}
	if err := l.kc.CreateFile(ctx, s.Namespace, path); err != nil {
		return "", err
	}
	metrics.JobsLaunched.WithLabelValues(s.Namespace).Inc()

	// The manifest stays on disk for debugging; secrets do not.
	if err := manifest.Redact(path, nil); err != nil {
		return "", err
	}

	if awaitCompletion {
		return name, l.AwaitCompletion(ctx, s, name)
	}
	return name, nil
}

// resolveJobName truncates base to the name limit and suffixes past
// existing jobs until a free name is found.
func (l *Launcher) resolveJobName(ctx context.Context, s *spec.Spec, base string) (string, error) {
	existing, err := l.kc.ListNames(ctx, s.Namespace, "jobs")
	if err != nil && !kmerrors.IsNotFound(err) {
		if kmerrors.IsPermissionDenied(err) && s.Namespace == reconcile.ReservedNamespace {
			existing = nil
		} else {
			return "", err
		}
	}
	taken := make(map[string]bool, len(existing))
	for _, full := range existing {
		if _, short, ok := strings.Cut(full, "/"); ok {
			taken[short] = true
		} else {
			// Listings normally come back kind-prefixed; keep bare
			// names too so an odd line cannot hide a collision.
			taken[full] = true
		}
	}

	name := manifest.TruncateMiddle(base)
	if !taken[name] {
		return name, nil
	}
	for i := 1; i <= maxNameCollisions; i++ {
		candidate := manifest.TruncateMiddle(fmt.Sprintf("%s-%d", base, i))
		if !taken[candidate] {
			l.log().Info("job name taken, suffixing", "base", base, "job", candidate)
			return candidate, nil
		}
	}
	return "", kmerrors.NewWithContext(kmerrors.ErrCodeResourceExhausted,
		"no free job name, clean up finished jobs",
		map[string]any{"base": base, "tried": maxNameCollisions})
}

func (l *Launcher) validateImage(image string) error {
	if _, err := reference.ParseNormalizedNamed(image); err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid JOB_IMAGE %q", image), err)
	}
	return nil
}

// pullStormJitter desynchronizes bulk submissions that will all pull
// their image on start.
func (l *Launcher) pullStormJitter(ctx context.Context, s *spec.Spec) error {
	if !strings.EqualFold(s.ImagePullPolicy, "Always") {
		return nil
	}
	delay := pullJitterFloor + time.Duration(l.randN(int64(pullJitterSpan)))
	l.log().Debug("image pull policy is Always, delaying submit", "delay", delay)
	return l.sleep(ctx, delay)
}
