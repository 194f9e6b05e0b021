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

	"github.com/NVIDIA/kubemover/pkg/reconcile"
	"github.com/NVIDIA/kubemover/pkg/spec"
)

func ensureCmd() *cli.Command {
	return &cli.Command{
		Name:  "ensure",
		Usage: "Reconcile namespaces, volume claims, and the journal monitor",
		Commands: []*cli.Command{
			ensureNamespaceCmd(),
			ensurePVCCmd(),
			ensureDaemonSetCmd(),
		},
	}
}

func newReconciler(cmd *cli.Command) (*reconcile.Reconciler, error) {
	kc, _, err := newClient(cmd)
	if err != nil {
		return nil, err
	}
	var opts []reconcile.Option
	if cmd.Bool("yes") {
		opts = append(opts, reconcile.WithConfirm(func(string) (bool, error) { return true, nil }))
	}
	return reconcile.New(kc, opts...), nil
}

func ensureNamespaceCmd() *cli.Command {
	return &cli.Command{
		Name:      "namespace",
		Usage:     "Ensure a namespace exists and is not terminating",
		ArgsUsage: "[NAME]",
		Description: `Ensure the namespace exists, waiting out a Terminating phase and
recreating when needed. The name may be given directly or derived from a
manifest file via --from-file; suspicious derivations prompt for
confirmation unless --yes is set.`,
		Flags: []cli.Flag{
			modeFlag,
			kubeconfigFlag,
			kubeContextFlag,
			outputFlag,
			formatFlag,
			&cli.StringFlag{
				Name:  "from-file",
				Usage: "Derive the namespace from this manifest file when no name is given",
			},
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Assume yes on confirmation prompts",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			mode := spec.ModeNormal
			if v := cmd.String("mode"); v != "" {
				m, err := spec.ParseMode(v)
				if err != nil {
					return err
				}
				mode = m
			}
			rec, err := newReconciler(cmd)
			if err != nil {
				return err
			}
			ns, err := rec.EnsureNamespace(ctx, mode, cmd.Args().First(), cmd.String("from-file"))
			if err != nil {
				return err
			}
			w, err := newResultWriter(cmd)
			if err != nil {
				return err
			}
			return w.Serialize(map[string]string{"namespace": ns})
		},
	}
}

func ensurePVCCmd() *cli.Command {
	return &cli.Command{
		Name:  "pvc",
		Usage: "Ensure the persistent volume claim exists and reaches a desired phase",
		Flags: slices.Concat(specFlags, []cli.Flag{
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Assume yes on confirmation prompts",
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := resolveSpec(cmd)
			if err != nil {
				return err
			}
			rec, err := newReconciler(cmd)
			if err != nil {
				return err
			}
			return rec.EnsurePVC(ctx, s)
		},
	}
}

func ensureDaemonSetCmd() *cli.Command {
	return &cli.Command{
		Name:  "daemonset",
		Usage: "Ensure the journal monitor daemonset is deployed and ready",
		Flags: slices.Concat(specFlags, []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "container-command",
				Usage: "Container entrypoint",
				Value: []string{"journalctl"},
			},
			&cli.StringSliceFlag{
				Name:  "container-arg",
				Usage: "Container argument (can be repeated)",
				Value: []string{"--follow"},
			},
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Assume yes on confirmation prompts",
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := resolveSpec(cmd)
			if err != nil {
				return err
			}
			rec, err := newReconciler(cmd)
			if err != nil {
				return err
			}
			return rec.EnsureDaemonSet(ctx, s,
				cmd.StringSlice("container-command"), cmd.StringSlice("container-arg"))
		},
	}
}
