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

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/kubemover/pkg/logging"
	"github.com/NVIDIA/kubemover/pkg/manifest"
)

const name = "kubemover"

// overridden during build with ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Root assembles the top-level command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Batch job lifecycle and pod data mover for Kubernetes",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Flags:   []cli.Flag{logLevelFlag},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			manifest.GeneratorVersion = version
			return ctx, nil
		},
		Commands: []*cli.Command{
			jobCmd(),
			cpCmd(),
			ensureCmd(),
			eventsCmd(),
			specCmd(),
		},
	}
}

// Execute runs the CLI, translating interrupts into context cancellation.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Root().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
