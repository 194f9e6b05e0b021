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
	"slices"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/kubemover/pkg/job"
	"github.com/NVIDIA/kubemover/pkg/reconcile"
	"github.com/NVIDIA/kubemover/pkg/spec"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// runReport is the serialized result of `job run`.
type runReport struct {
	Name      string    `json:"name" yaml:"name"`
	Namespace string    `json:"namespace" yaml:"namespace"`
	Mode      spec.Mode `json:"mode" yaml:"mode"`
	Awaited   bool      `json:"awaited" yaml:"awaited"`
}

func jobCmd() *cli.Command {
	return &cli.Command{
		Name:  "job",
		Usage: "Launch and track one-liner batch jobs",
		Commands: []*cli.Command{
			jobRunCmd(),
			jobWaitCmd(),
		},
	}
}

func jobRunCmd() *cli.Command {
	return &cli.Command{
		Name:                  "run",
		EnableShellCompletion: true,
		Usage:                 "Create a batch job running a single shell command",
		Description: `Create a job whose single container runs the given shell command,
ensuring the namespace and any requested persistent volume claim exist
first. Generated manifests are written to the manifests folder with
secrets redacted.

Name collisions with existing jobs are resolved by numeric suffixing.
In dry-run mode the resolved job name is reported without touching the
cluster.

# Examples

Run against a spec file and wait for completion:
  kubemover job run -f mover.yaml -c "tar cf - /data | wc -c"

Launch without waiting:
  kubemover job run -n data-mover --image busybox:stable -c "sleep 300" --await=false`,
		Flags: slices.Concat(specFlags, []cli.Flag{
			&cli.StringFlag{
				Name:     "command",
				Aliases:  []string{"c"},
				Usage:    "Shell command the job container runs",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "container-name",
				Usage: "Container (and manifest) name; derived from the job name when empty",
			},
			&cli.BoolFlag{
				Name:  "await",
				Usage: "Wait for the job to reach a terminal state",
				Value: true,
			},
			outputFlag,
			formatFlag,
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := resolveSpec(cmd)
			if err != nil {
				return err
			}
			kc, _, err := newClient(cmd)
			if err != nil {
				return err
			}

			launcher := job.New(kc, reconcile.New(kc))
			jobName, err := launcher.CreateOneLinerJob(ctx, s,
				cmd.String("command"), cmd.String("container-name"), cmd.Bool("await"))
			if err != nil {
				return err
			}

			w, err := newResultWriter(cmd)
			if err != nil {
				return err
			}
			return w.Serialize(runReport{
				Name:      jobName,
				Namespace: s.Namespace,
				Mode:      s.Mode,
				Awaited:   cmd.Bool("await"),
			})
		},
	}
}

func jobWaitCmd() *cli.Command {
	return &cli.Command{
		Name:      "wait",
		Usage:     "Wait for an existing job to reach a terminal state",
		ArgsUsage: "JOB_NAME",
		Flags:     specFlags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			jobName := cmd.Args().First()
			if jobName == "" {
				return kmerrors.New(kmerrors.ErrCodeInvalidRequest, "job name argument is required")
			}
			s, err := resolveSpec(cmd)
			if err != nil {
				return err
			}
			kc, _, err := newClient(cmd)
			if err != nil {
				return err
			}
			launcher := job.New(kc, reconcile.New(kc))
			return launcher.AwaitCompletion(ctx, s, jobName)
		},
	}
}
