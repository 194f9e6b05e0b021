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

// Package cli implements the command-line interface for kubemover.
//
// # Commands
//
// job run - Launch a one-liner batch job:
//
//	kubemover job run -f mover.yaml -c "mysqldump --all-databases > /mnt/dump.sql"
//
// Ensures the namespace and any requested persistent volume claim first,
// renders the job manifest (with secrets redacted) into the manifests
// folder, creates the job, and by default waits for a terminal state
// while mirroring its logs.
//
// job wait - Wait for an existing job:
//
//	kubemover job wait export-1 -n data-mover
//
// cp - Move data in and out of pods:
//
//	kubemover cp -n data-mover ./dump.sql "db-0 -c mysql:/backup/dump.sql"
//	kubemover cp -n data-mover worker-1:/var/reports ./reports
//	kubemover cp -n data-mover src-0:/data/blob dst-0:/data/blob --retries 5
//
// ensure namespace|pvc|daemonset - Reconcile supporting resources:
//
//	kubemover ensure namespace data-mover
//	kubemover ensure pvc -f mover.yaml
//	kubemover ensure daemonset -f mover.yaml
//
// events - Print namespace events:
//
//	kubemover events -n data-mover
//
// spec - Print the resolved run spec:
//
//	kubemover spec -f mover.yaml --key-case camel -t json
//
// # Configuration Precedence
//
// Command-line flags override environment variables (KUBEMOVER_* and
// LOG_LEVEL), which override values from the spec file given with
// --spec/-f, which override built-in defaults.
//
// # Exit Codes
//
//	0  Success
//	1  General error (invalid arguments, execution failure)
//	2  Context canceled or timeout
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/kubemover/pkg/cli.version=1.0.0'"
package cli
