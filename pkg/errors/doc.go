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

// Package errors provides the structured error taxonomy shared by the
// reconcilers, the job poller, and the data mover.
//
// Only NOT_FOUND (API propagation delay) and WAIT_TIMEOUT (a wait primitive
// running out its --timeout) are retryable; everything else aborts the
// current operation and is converted by the CLI layer into a non-zero exit.
//
// Usage:
//
//	if err := kube.ApplyFile(ctx, ns, path); err != nil {
//	    return errors.Wrap(errors.ErrCodeInternal, "applying PVC manifest", err)
//	}
//
// Classification helpers (IsNotFound, IsWaitTimeout, ...) walk the wrap
// chain via errors.As, so wrapping with fmt.Errorf("...: %w", err) is safe.
package errors
