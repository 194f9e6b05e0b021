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

// Package spec holds the declarative job specification: the typed data
// model loaded from YAML spec files, the run mode enum, and the key-case
// helpers for converting between spec keys and Kubernetes field names.
package spec

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/api/resource"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultWaitInterval    = 30 * time.Second
	DefaultRetries         = 6
	DefaultJobTimeout      = time.Hour
	DefaultRetentionPeriod = time.Hour
	DefaultImage           = "busybox:stable"
	DefaultVolumeName      = "default-volume-name"
	DefaultDaemonSetName   = "journal-monitor"
	DefaultDiskRequired    = "1Gi"
)

// PurgeableLabelKey marks generated resources eligible for bulk cleanup.
const PurgeableLabelKey = "purgeable"

// VersionLabelKey carries the generator version on every rendered object.
const VersionLabelKey = "kubemover/version"

// PVC phases accepted in PVCDesiredStates.
var knownPVCPhases = []string{"Pending", "Bound", "Lost"}

// Spec is the declarative description of one job run. Field names keep the
// original UPPER_SNAKE spec-file keys.
type Spec struct {
	Namespace     string `yaml:"NAMESPACE"`
	JobName       string `yaml:"JOB_NAME,omitempty"`
	JobImage      string `yaml:"JOB_IMAGE,omitempty"`
	ContainerName string `yaml:"CONTAINER_NAME,omitempty"`

	PVCName string `yaml:"PERSISTENT_VOLUME_CLAIM_NAME,omitempty"`
	// PVCDesiredStates is the ordered acceptable phase list.
	PVCDesiredStates []string `yaml:"PERSISTENT_VOLUME_CLAIM_DESIRED_STATES,omitempty"`
	// PVCDesiredState is the legacy singular key; when set it wins over the
	// plural form.
	PVCDesiredState string `yaml:"PERSISTENT_VOLUME_CLAIM_DESIRED_STATE,omitempty"`

	Mode Mode `yaml:"MODE,omitempty"`

	JobTimeout      Duration `yaml:"JOB_TIMEOUT,omitempty"`
	WaitInterval    Duration `yaml:"WAIT_INTERVAL,omitempty"`
	Retries         int      `yaml:"RETRIES,omitempty"`
	RetentionPeriod Duration `yaml:"RETENTION_PERIOD,omitempty"`

	ManifestsFolder string   `yaml:"GENERATED_MANIFESTS_FOLDER,omitempty"`
	StorageClass    string   `yaml:"STORAGE_CLASS,omitempty"`
	AccessModes     []string `yaml:"ACCESS_MODES,omitempty"`
	DiskRequired    string   `yaml:"DISK_REQUIRED,omitempty"`

	NodeNames     []string `yaml:"NODE_NAMES,omitempty"`
	DaemonSetName string   `yaml:"DAEMONSET_NAME,omitempty"`
	MountPath     string   `yaml:"JOB_MOUNT_PATH,omitempty"`
	VolumeName    string   `yaml:"VOLUME_NAME,omitempty"`

	EnvVars         map[string]string `yaml:"ENV_VARS,omitempty"`
	Labels          map[string]string `yaml:"LABELS,omitempty"`
	ImagePullPolicy string            `yaml:"IMAGE_PULL_POLICY,omitempty"`

	RunAsUser  *int64 `yaml:"RUN_AS_USER,omitempty"`
	RunAsGroup *int64 `yaml:"RUN_AS_GROUP,omitempty"`
}

// Load reads and validates a spec file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kmerrors.Wrap(kmerrors.ErrCodeInvalidRequest, fmt.Sprintf("reading spec file %s", path), err)
	}
	return Parse(data)
}

// Parse decodes a YAML spec document, applies defaults, and validates.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	dec := yaml.Unmarshal(data, &s)
	if dec != nil {
		return nil, kmerrors.Wrap(kmerrors.ErrCodeInvalidRequest, "decoding spec", dec)
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ApplyDefaults fills zero-valued fields with the stock defaults.
func (s *Spec) ApplyDefaults() {
	if s.WaitInterval == 0 {
		s.WaitInterval = Duration(DefaultWaitInterval)
	}
	if s.Retries == 0 {
		s.Retries = DefaultRetries
	}
	if s.JobTimeout == 0 {
		s.JobTimeout = Duration(DefaultJobTimeout)
	}
	if s.RetentionPeriod == 0 {
		s.RetentionPeriod = Duration(DefaultRetentionPeriod)
	}
	if s.JobImage == "" {
		s.JobImage = DefaultImage
	}
	if s.VolumeName == "" {
		s.VolumeName = DefaultVolumeName
	}
	if s.DaemonSetName == "" {
		s.DaemonSetName = DefaultDaemonSetName
	}
	if s.DiskRequired == "" {
		s.DiskRequired = DefaultDiskRequired
	}
	if len(s.AccessModes) == 0 {
		s.AccessModes = []string{"ReadWriteMany"}
	}
	if s.Mode == "" {
		s.Mode = ModeNormal
	}
}

// DesiredPVCPhases resolves the phase list: the legacy singular key wins,
// then the plural list, then the Bound default.
func (s *Spec) DesiredPVCPhases() []string {
	if s.PVCDesiredState != "" {
		return []string{s.PVCDesiredState}
	}
	if len(s.PVCDesiredStates) > 0 {
		return s.PVCDesiredStates
	}
	return []string{"Bound"}
}

// Validate checks field values, suggesting close matches for misspelled
// enum-like fields.
func (s *Spec) Validate() error {
	if s.Namespace == "" {
		return kmerrors.New(kmerrors.ErrCodeInvalidRequest, "NAMESPACE is required")
	}
	if err := s.Mode.Validate(); err != nil {
		return err
	}
	for _, phase := range s.DesiredPVCPhases() {
		if !slices.Contains(knownPVCPhases, phase) {
			return kmerrors.Newf(kmerrors.ErrCodeInvalidRequest,
				"unknown PVC phase %q%s", phase, suggestion(phase, knownPVCPhases))
		}
	}
	if s.DiskRequired != "" {
		if _, err := resource.ParseQuantity(s.DiskRequired); err != nil {
			return kmerrors.Wrap(kmerrors.ErrCodeInvalidRequest,
				fmt.Sprintf("DISK_REQUIRED %q is not a valid quantity", s.DiskRequired), err)
		}
	}
	return nil
}

// DiskQuantity returns DISK_REQUIRED as a parsed quantity. Call Validate
// first; parse failures here fall back to the default.
func (s *Spec) DiskQuantity() resource.Quantity {
	q, err := resource.ParseQuantity(s.DiskRequired)
	if err != nil {
		return resource.MustParse(DefaultDiskRequired)
	}
	return q
}
