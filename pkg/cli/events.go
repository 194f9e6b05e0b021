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
)

func eventsCmd() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Print namespace events sorted by creation time",
		Description: `Print events for the namespace, picking the events subcommand form
supported by the installed kubectl version. With --output the listing is
written to a file instead, with kubectl's stderr next to it in a .err
sibling when non-empty.`,
		Flags: []cli.Flag{
			namespaceFlag,
			kubeconfigFlag,
			kubeContextFlag,
			outputFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			kc, _, err := newClient(cmd)
			if err != nil {
				return err
			}
			if out := cmd.String("output"); out != "" {
				return kc.DumpEvents(ctx, cmd.String("namespace"), out)
			}
			kc.Events(ctx, cmd.String("namespace"))
			return nil
		},
	}
}
