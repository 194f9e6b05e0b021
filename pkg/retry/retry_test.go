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

package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// recordingSleeper collects requested delays without actually sleeping.
func recordingSleeper(delays *[]time.Duration) Sleeper {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDo_SucceedsWithoutSleeping(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	calls := 0
	err := Do(context.Background(), Default(6), recordingSleeper(&delays),
		func(context.Context) (bool, error) {
			calls++
			return true, nil
		})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
	if len(delays) != 0 {
		t.Errorf("slept %d times before first success, want 0", len(delays))
	}
}

func TestDo_ExhaustsBudget(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	wantErr := errors.New("still not visible")
	calls := 0
	err := Do(context.Background(), Default(4), recordingSleeper(&delays),
		func(context.Context) (bool, error) {
			calls++
			return false, wantErr
		})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Do() error = %v, want last op error", err)
	}
	if calls != 4 {
		t.Errorf("op called %d times, want 4", calls)
	}
	// n attempts sleep n-1 times
	if len(delays) != 3 {
		t.Errorf("slept %d times, want 3", len(delays))
	}
}

func TestDo_BackoffGrows(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	b := Default(5)
	b.Jitter = 0 // deterministic
	_ = Do(context.Background(), b, recordingSleeper(&delays),
		func(context.Context) (bool, error) {
			return false, errors.New("nope")
		})

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("got %d delays, want %d", len(delays), len(want))
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestDo_FixedInterval(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	_ = Do(context.Background(), Fixed(3, 10*time.Second), recordingSleeper(&delays),
		func(context.Context) (bool, error) {
			return false, errors.New("not converged")
		})

	if len(delays) != 2 {
		t.Fatalf("got %d delays, want 2", len(delays))
	}
	for i, d := range delays {
		if d != 10*time.Second {
			t.Errorf("delay[%d] = %v, want 10s", i, d)
		}
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, Default(6), nil, func(context.Context) (bool, error) {
		t.Fatal("op must not run after cancellation")
		return true, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}

func TestDo_TerminalErrorStopsEarly(t *testing.T) {
	t.Parallel()

	terminal := errors.New("forbidden")
	calls := 0
	err := Do(context.Background(), Default(6), recordingSleeper(new([]time.Duration)),
		func(context.Context) (bool, error) {
			calls++
			return true, terminal
		})
	if !errors.Is(err, terminal) {
		t.Fatalf("Do() error = %v, want terminal error", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1", calls)
	}
}

func TestContextSleep(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ContextSleep(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("ContextSleep on cancelled ctx = %v, want context.Canceled", err)
	}
	if err := ContextSleep(context.Background(), 0); err != nil {
		t.Errorf("ContextSleep(0) = %v, want nil", err)
	}
}
