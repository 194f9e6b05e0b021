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

// Package reconcile converges cluster prerequisites before a job runs:
// the namespace, the backing PersistentVolumeClaim, and the journal
// monitoring DaemonSet. Reconcilers are idempotent; re-running against a
// converged cluster changes nothing.
package reconcile

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/NVIDIA/kubemover/pkg/kubectl"
	"github.com/NVIDIA/kubemover/pkg/retry"
)

// ReservedNamespace is the one namespace where a forbidden read is
// tolerated: job creation may still be permitted there without list/get
// rights.
const ReservedNamespace = "default-tenant"

// ConfirmFunc asks the operator a yes/no question. Implementations return
// false to abort.
type ConfirmFunc func(prompt string) (bool, error)

// StdinConfirm prompts on stderr and reads one line from stdin.
func StdinConfirm(prompt string) (bool, error) {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// Reconciler converges namespaces, claims, and daemonsets through kubectl.
type Reconciler struct {
	kc      *kubectl.Client
	logger  *slog.Logger
	sleep   retry.Sleeper
	confirm ConfirmFunc
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) { r.logger = logger }
}

// WithSleeper substitutes the retry sleeper, for tests.
func WithSleeper(sleep retry.Sleeper) Option {
	return func(r *Reconciler) { r.sleep = sleep }
}

// WithConfirm substitutes the interactive confirmation gate.
func WithConfirm(confirm ConfirmFunc) Option {
	return func(r *Reconciler) { r.confirm = confirm }
}

// New returns a Reconciler issuing commands through kc.
func New(kc *kubectl.Client, opts ...Option) *Reconciler {
	r := &Reconciler{
		kc:      kc,
		sleep:   retry.ContextSleep,
		confirm: StdinConfirm,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
