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

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/kubemover/pkg/spec"
	"github.com/NVIDIA/kubemover/pkg/transfer"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// cpReport is the serialized result of `cp`.
type cpReport struct {
	Source      string                  `json:"source" yaml:"source"`
	Destination string                  `json:"destination" yaml:"destination"`
	Direction   string                  `json:"direction" yaml:"direction"`
	Attempts    []transfer.AttemptCodes `json:"attempts,omitempty" yaml:"attempts,omitempty"`
}

func cpCmd() *cli.Command {
	return &cli.Command{
		Name:                  "cp",
		EnableShellCompletion: true,
		Usage:                 "Copy files and directories to, from, and between pods",
		ArgsUsage:             "SRC DEST",
		Description: `Copy data over kubectl exec streams. A remote endpoint is written as
<pod>:<path>, where the pod part may carry extra exec arguments such as
"-c container". Escape a literal colon in a path as \:.

Downloads check local free space before moving data. Unless the mode is
unsafe, both sides are hashed after the copy and mismatches fail the
command.

# Examples

Upload a dump into a pod:
  kubemover cp -n data-mover ./dump.sql "db-0 -c mysql:/backup/dump.sql"

Download a directory:
  kubemover cp -n data-mover worker-1:/var/reports ./reports

Pod to pod with a retry budget:
  kubemover cp -n data-mover src-0:/data/blob dst-0:/data/blob --retries 5`,
		Flags: []cli.Flag{
			namespaceFlag,
			modeFlag,
			retriesFlag,
			kubeconfigFlag,
			kubeContextFlag,
			outputFlag,
			formatFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return kmerrors.Newf(kmerrors.ErrCodeInvalidRequest,
					"cp takes exactly two arguments, got %d", cmd.Args().Len())
			}
			src, dest := cmd.Args().Get(0), cmd.Args().Get(1)

			mode := spec.ModeNormal
			if v := cmd.String("mode"); v != "" {
				m, err := spec.ParseMode(v)
				if err != nil {
					return err
				}
				mode = m
			}

			kc, runner, err := newClient(cmd)
			if err != nil {
				return err
			}
			engine := transfer.New(kc, runner,
				transfer.WithNamespace(cmd.String("namespace")))

			out, err := engine.Transfer(ctx, src, dest, mode, int(cmd.Int("retries")))
			if err != nil {
				return err
			}

			w, err := newResultWriter(cmd)
			if err != nil {
				return err
			}
			return w.Serialize(cpReport{
				Source:      src,
				Destination: dest,
				Direction:   out.Direction,
				Attempts:    out.Attempts,
			})
		},
	}
}
