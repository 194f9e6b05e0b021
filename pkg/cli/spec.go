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
	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/kubemover/pkg/spec"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

func specCmd() *cli.Command {
	return &cli.Command{
		Name:  "spec",
		Usage: "Print the resolved run spec after defaults and overrides",
		Description: `Resolve the effective run spec from the spec file, environment, and
flags, and print it. Useful for checking what a later job run or ensure
would actually use.

--key-case camel rewrites the UPPER_SNAKE spec keys to camelBack for
embedding in Kubernetes-native tooling.`,
		Flags: slices.Concat(specFlags, []cli.Flag{
			&cli.StringFlag{
				Name:  "key-case",
				Usage: "Key convention for the output: snake or camel",
				Value: "snake",
			},
			outputFlag,
			formatFlag,
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := resolveSpec(cmd)
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(s)
			if err != nil {
				return kmerrors.Wrap(kmerrors.ErrCodeInternal, "encoding resolved spec", err)
			}
			var tree map[string]any
			if err := yaml.Unmarshal(data, &tree); err != nil {
				return kmerrors.Wrap(kmerrors.ErrCodeInternal, "decoding resolved spec", err)
			}

			var out any = tree
			switch cmd.String("key-case") {
			case "snake", "":
			case "camel":
				out = spec.ConvertKeys(tree, spec.CamelBackCase)
			default:
				return kmerrors.Newf(kmerrors.ErrCodeInvalidRequest,
					"unknown key case %q, want snake or camel", cmd.String("key-case"))
			}

			w, err := newResultWriter(cmd)
			if err != nil {
				return err
			}
			return w.Serialize(out)
		},
	}
}
