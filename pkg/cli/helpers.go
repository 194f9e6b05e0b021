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
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/kubemover/pkg/kubectl"
	"github.com/NVIDIA/kubemover/pkg/serializer"
	"github.com/NVIDIA/kubemover/pkg/shell"
	"github.com/NVIDIA/kubemover/pkg/spec"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// resolveSpec builds the effective run spec: file values first, then
// flag and environment overrides, then defaults and validation.
func resolveSpec(cmd *cli.Command) (*spec.Spec, error) {
	s := &spec.Spec{}
	if path := cmd.String("spec"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, kmerrors.Wrap(kmerrors.ErrCodeInvalidRequest,
				fmt.Sprintf("reading spec file %s", path), err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, kmerrors.Wrap(kmerrors.ErrCodeInvalidRequest, "decoding spec", err)
		}
	}

	if v := cmd.String("namespace"); v != "" {
		s.Namespace = v
	}
	if v := cmd.String("mode"); v != "" {
		m, err := spec.ParseMode(v)
		if err != nil {
			return nil, err
		}
		s.Mode = m
	}
	if v := cmd.String("image"); v != "" {
		s.JobImage = v
	}
	if v := cmd.String("job-name"); v != "" {
		s.JobName = v
	}
	if v := cmd.String("pvc"); v != "" {
		s.PVCName = v
	}
	if v := cmd.String("manifests-folder"); v != "" {
		s.ManifestsFolder = v
	}
	if v := cmd.StringSlice("node-name"); len(v) > 0 {
		s.NodeNames = v
	}
	if cmd.IsSet("retries") {
		s.Retries = int(cmd.Int("retries"))
	}
	if cmd.IsSet("timeout") {
		s.JobTimeout = spec.Duration(cmd.Duration("timeout"))
	}
	if cmd.IsSet("wait-interval") {
		s.WaitInterval = spec.Duration(cmd.Duration("wait-interval"))
	}

	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// newClient assembles the kubectl client and the local runner behind it.
func newClient(cmd *cli.Command) (*kubectl.Client, *shell.Local, error) {
	kubeconfig := cmd.String("kubeconfig")
	if kubeconfig == "" {
		kubeconfig = kubectl.DefaultKubeconfig()
	}
	kubeCtx := cmd.String("kube-context")
	if kubeCtx != "" {
		if err := kubectl.ValidateContext(kubeconfig, kubeCtx); err != nil {
			return nil, nil, err
		}
	}

	// The poller and the phase waits re-run kubectl in tight loops; cap
	// the start rate so a misbehaving wait cannot hammer the API server.
	runner := shell.New(shell.WithRateLimiter(rate.NewLimiter(rate.Every(time.Second), 3)))
	if err := runner.AssertExecutable("kubectl"); err != nil {
		return nil, nil, err
	}
	kc := kubectl.New(runner,
		kubectl.WithKubeconfig(kubeconfig),
		kubectl.WithContext(kubeCtx),
	)
	return kc, runner, nil
}

// newResultWriter builds the output serializer from --format and --output.
func newResultWriter(cmd *cli.Command) (*serializer.Writer, error) {
	format, err := serializer.ParseFormat(cmd.String("format"))
	if err != nil {
		return nil, err
	}
	return serializer.NewFileWriterOrStdout(format, cmd.String("output")), nil
}
