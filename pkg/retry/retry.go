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

// Package retry is the single backoff/retry utility shared by the
// reconcilers and the completion poller. It replaces per-call-site
// exponential backoff arithmetic with one bounded loop around
// k8s.io/apimachinery's wait.Backoff, with an injectable sleeper so tests
// run without wall-clock delays.
package retry

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// Sleeper blocks for d or until ctx is done. The default implementation is
// ContextSleep; tests inject a recording no-op.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep sleeps for d, returning early with ctx.Err() on cancellation.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Default returns the backoff used for "resource not yet visible" retries:
// first retry after 1s, doubling, capped at 60s, for the given number of
// attempts. Jitter desynchronizes concurrently launched callers.
func Default(attempts int) wait.Backoff {
	return wait.Backoff{
		Duration: time.Second,
		Factor:   2,
		Jitter:   0.1,
		Steps:    attempts,
		Cap:      60 * time.Second,
	}
}

// Fixed returns a constant-interval backoff, e.g. the DaemonSet
// convergence wait (3 attempts, 10s apart).
func Fixed(attempts int, interval time.Duration) wait.Backoff {
	return wait.Backoff{
		Duration: interval,
		Factor:   1,
		Steps:    attempts,
	}
}

// Do runs op until it reports done, the backoff budget is exhausted, or ctx
// is cancelled. op returns (done, err): done=true stops immediately
// (err may still be non-nil to report a terminal failure); done=false with
// err!=nil retries and, if the budget runs out, surfaces that err.
//
// The sleep happens between attempts, never before the first one.
func Do(ctx context.Context, backoff wait.Backoff, sleep Sleeper, op func(ctx context.Context) (bool, error)) error {
	if sleep == nil {
		sleep = ContextSleep
	}

	attempts := backoff.Steps
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := op(ctx)
		if done {
			return err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		if err := sleep(ctx, backoff.Step()); err != nil {
			return err
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return ctx.Err()
}
