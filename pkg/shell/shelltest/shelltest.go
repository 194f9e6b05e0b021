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

// Package shelltest provides a scripted shell.Runner double for tests of
// the reconcilers, the job poller, and the data mover.
package shelltest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/NVIDIA/kubemover/pkg/shell"
)

// Response is one scripted command outcome. When Match is set, the response
// is selected by substring match against the joined command line instead of
// strict ordering.
type Response struct {
	Match  string
	Stdout string
	Stderr string
	Code   int
}

// Call records one executed command.
type Call struct {
	Argv  []string
	Stdin string
}

// Fake is a shell.Runner that replays scripted responses. Responses with a
// Match pattern are consulted first (first hit wins, reusable); remaining
// calls pop the ordered Script. An exhausted script fails the command with
// an error so tests notice unexpected calls.
type Fake struct {
	mu      sync.Mutex
	Script  []Response
	Rules   []Response
	Calls   []Call
	scripts int
}

// Run implements shell.Runner.
func (f *Fake) Run(ctx context.Context, argv []string, opts ...shell.Option) (shell.Result, error) {
	if err := ctx.Err(); err != nil {
		return shell.Result{}, err
	}
	options := shell.BuildOptions(opts)
	resp, err := f.next(argv, options)
	if err != nil {
		return shell.Result{}, err
	}

	res := shell.Result{Stderr: resp.Stderr}
	if options.Stdout != nil {
		if _, werr := io.WriteString(options.Stdout, resp.Stdout); werr != nil {
			return res, werr
		}
	} else {
		res.Stdout = resp.Stdout
	}
	if resp.Code != 0 {
		res.Code = resp.Code
		return res, exitErr(argv, resp)
	}
	return res, nil
}

// Stream implements shell.Runner.
func (f *Fake) Stream(ctx context.Context, argv []string, opts ...shell.Option) error {
	_, err := f.Run(ctx, argv, opts...)
	return err
}

// CommandLines returns each recorded call as a single joined string.
func (f *Fake) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		lines[i] = strings.Join(c.Argv, " ")
	}
	return lines
}

// Saw reports whether any recorded command line contains substr.
func (f *Fake) Saw(substr string) bool {
	for _, line := range f.CommandLines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func (f *Fake) next(argv []string, options shell.Options) (Response, error) {
	// Drain stdin before taking the lock. Piped transfers run the
	// producing and consuming commands concurrently, and the consumer
	// blocks here until the producer finishes writing.
	call := Call{Argv: argv}
	if options.Stdin != nil {
		data, err := io.ReadAll(options.Stdin)
		if err != nil {
			return Response{}, err
		}
		call.Stdin = string(data)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)

	line := strings.Join(argv, " ")
	for _, rule := range f.Rules {
		if rule.Match != "" && strings.Contains(line, rule.Match) {
			return rule, nil
		}
	}
	if f.scripts >= len(f.Script) {
		return Response{}, fmt.Errorf("shelltest: unscripted command: %s", line)
	}
	resp := f.Script[f.scripts]
	f.scripts++
	return resp, nil
}

func exitErr(argv []string, resp Response) error {
	return &shell.ExitError{
		Cmd:    strings.Join(argv, " "),
		Code:   resp.Code,
		Stderr: resp.Stderr,
	}
}
