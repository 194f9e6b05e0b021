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

package errors

import (
	goerrors "errors"
	"fmt"
	"testing"
)

func TestStructuredError_Error(t *testing.T) {
	t.Parallel()

	t.Run("without cause", func(t *testing.T) {
		t.Parallel()
		err := New(ErrCodeNotFound, "job not visible yet")
		want := "[NOT_FOUND] job not visible yet"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("with cause", func(t *testing.T) {
		t.Parallel()
		cause := goerrors.New("exit status 1")
		err := Wrap(ErrCodeWaitTimeout, "wait for condition=complete", cause)
		want := "[WAIT_TIMEOUT] wait for condition=complete: exit status 1"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"direct", New(ErrCodeIntegrity, "checksum mismatch"), ErrCodeIntegrity},
		{"wrapped by fmt", fmt.Errorf("transfer: %w", New(ErrCodeResourceExhausted, "disk full")), ErrCodeResourceExhausted},
		{"double wrapped", Wrap(ErrCodePermissionDenied, "get namespace", New(ErrCodeInternal, "inner")), ErrCodePermissionDenied},
		{"plain error", goerrors.New("boom"), ErrCodeInternal},
		{"nil-ish plain", fmt.Errorf("no structure here"), ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassificationHelpers(t *testing.T) {
	t.Parallel()

	if !IsNotFound(fmt.Errorf("outer: %w", New(ErrCodeNotFound, "x"))) {
		t.Error("IsNotFound should see through fmt.Errorf wrapping")
	}
	if IsNotFound(New(ErrCodeWaitTimeout, "x")) {
		t.Error("IsNotFound must not match WAIT_TIMEOUT")
	}
	if !IsWaitTimeout(New(ErrCodeWaitTimeout, "x")) {
		t.Error("IsWaitTimeout should match")
	}
	if !IsPermissionDenied(New(ErrCodePermissionDenied, "x")) {
		t.Error("IsPermissionDenied should match")
	}
	if !IsIntegrity(New(ErrCodeIntegrity, "x")) {
		t.Error("IsIntegrity should match")
	}
	if !IsResourceExhausted(New(ErrCodeResourceExhausted, "x")) {
		t.Error("IsResourceExhausted should match")
	}
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	cause := goerrors.New("root")
	err := Wrap(ErrCodeInternal, "mid", cause)
	if !goerrors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}
}
