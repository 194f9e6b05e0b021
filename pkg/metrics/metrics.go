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

// Package metrics exposes Prometheus instrumentation for job runs and
// data transfers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsLaunched counts submitted jobs by namespace.
	JobsLaunched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kubemover_jobs_launched_total",
		Help: "Number of batch jobs submitted to the cluster",
	}, []string{"namespace"})

	// JobCompletions counts awaited job resolutions by result
	// (succeeded, failed, ambiguous).
	JobCompletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kubemover_job_completions_total",
		Help: "Number of awaited job completions by terminal result",
	}, []string{"result"})

	// Transfers counts data transfers by direction
	// (upload, download, remote).
	Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kubemover_transfers_total",
		Help: "Number of data transfers by direction",
	}, []string{"direction"})

	// TransferBytes sums bytes moved per direction, where sizes are known.
	TransferBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kubemover_transfer_bytes_total",
		Help: "Bytes moved by data transfers",
	}, []string{"direction"})

	// IntegrityFailures counts checksum mismatches after transfer.
	IntegrityFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kubemover_transfer_integrity_failures_total",
		Help: "Number of post-transfer checksum mismatches",
	})

	// RetriesExhausted counts operations that ran out of retry budget.
	RetriesExhausted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kubemover_retries_exhausted_total",
		Help: "Number of operations that exhausted their retry budget",
	}, []string{"operation"})
)
