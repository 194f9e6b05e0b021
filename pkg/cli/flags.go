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
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/kubemover/pkg/spec"
)

// Flags shared across commands. Flag values override spec-file values,
// which override built-in defaults.
var (
	specFlag = &cli.StringFlag{
		Name:    "spec",
		Aliases: []string{"f"},
		Usage:   "Path to a YAML run spec (flags override its values)",
		Sources: cli.EnvVars("KUBEMOVER_SPEC"),
	}

	namespaceFlag = &cli.StringFlag{
		Name:    "namespace",
		Aliases: []string{"n"},
		Usage:   "Kubernetes namespace to operate in",
		Sources: cli.EnvVars("KUBEMOVER_NAMESPACE"),
	}

	modeFlag = &cli.StringFlag{
		Name:    "mode",
		Usage:   "Run mode: dry-run, normal, or unsafe",
		Sources: cli.EnvVars("KUBEMOVER_MODE"),
	}

	imageFlag = &cli.StringFlag{
		Name:    "image",
		Usage:   "Container image for the job (default: " + spec.DefaultImage + ")",
		Sources: cli.EnvVars("KUBEMOVER_IMAGE"),
	}

	jobNameFlag = &cli.StringFlag{
		Name:  "job-name",
		Usage: "Override the generated job name",
	}

	pvcFlag = &cli.StringFlag{
		Name:  "pvc",
		Usage: "Name of the persistent volume claim to mount",
	}

	manifestsFolderFlag = &cli.StringFlag{
		Name:  "manifests-folder",
		Usage: "Directory to write rendered manifests to (with secrets redacted)",
	}

	nodeNameFlag = &cli.StringSliceFlag{
		Name:  "node-name",
		Usage: "Restrict scheduling to these node names (can be repeated)",
	}

	retriesFlag = &cli.IntFlag{
		Name:  "retries",
		Usage: "Retry budget for waits and pod-to-pod copies",
		Value: spec.DefaultRetries,
	}

	timeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Job completion deadline",
		Value: spec.DefaultJobTimeout,
	}

	waitIntervalFlag = &cli.DurationFlag{
		Name:  "wait-interval",
		Usage: "Polling interval for job and resource waits",
		Value: spec.DefaultWaitInterval,
	}

	kubeconfigFlag = &cli.StringFlag{
		Name:  "kubeconfig",
		Usage: "Path to the kubeconfig file (default: $KUBECONFIG or ~/.kube/config)",
	}

	kubeContextFlag = &cli.StringFlag{
		Name:  "kube-context",
		Usage: "Kubeconfig context to use",
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output file path (default: stdout)",
	}

	formatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"t"},
		Usage:   "Output format: yaml, json, or table",
		Value:   "yaml",
	}

	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level: debug, info, warn, or error",
		Sources: cli.EnvVars("LOG_LEVEL"),
		Value:   "info",
	}
)

// specFlags is the common set for commands that resolve a run spec.
var specFlags = []cli.Flag{
	specFlag,
	namespaceFlag,
	modeFlag,
	imageFlag,
	jobNameFlag,
	pvcFlag,
	manifestsFolderFlag,
	nodeNameFlag,
	retriesFlag,
	timeoutFlag,
	waitIntervalFlag,
	kubeconfigFlag,
	kubeContextFlag,
}
