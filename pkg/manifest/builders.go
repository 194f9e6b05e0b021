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

// Package manifest builds the typed Kubernetes objects the orchestrator
// submits (Job, PersistentVolumeClaim, DaemonSet), renders them to YAML
// manifest files, and redacts secrets from rendered output.
package manifest

import (
	"maps"
	"os"
	"slices"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"

	"github.com/NVIDIA/kubemover/pkg/spec"
)

// GeneratorVersion stamps rendered objects; overridden at build time.
var GeneratorVersion = "dev"

// Manifest base filenames (a .yaml suffix and collision counters are added
// by Render).
const (
	JobManifestName       = "batch-job"
	PVCManifestName       = "persistent-volume-claim"
	DaemonSetManifestName = "daemonset"
)

// Job builds a batch Job for a one-liner command. Name is the caller's
// collision-resolved job name; the container falls back to it when the
// spec names no container.
func Job(s *spec.Spec, name string, command []string) *batchv1.Job {
	containerName := s.ContainerName
	if containerName == "" {
		containerName = name
	}

	container := corev1.Container{
		Name:    containerName,
		Image:   s.JobImage,
		Command: command,
		Env:     envVars(s.EnvVars),
		SecurityContext: &corev1.SecurityContext{
			RunAsUser:  orCurrentUID(s.RunAsUser),
			RunAsGroup: orCurrentGID(s.RunAsGroup),
		},
	}
	if s.ImagePullPolicy != "" {
		container.ImagePullPolicy = corev1.PullPolicy(s.ImagePullPolicy)
	}

	podSpec := corev1.PodSpec{
		// Never restarts in a new pod; switching nodes may clear the fault.
		RestartPolicy: corev1.RestartPolicyNever,
		Containers:    []corev1.Container{container},
		Affinity:      jobAffinity(s.NodeNames),
	}
	if s.PVCName != "" {
		podSpec.Containers[0].VolumeMounts = []corev1.VolumeMount{{
			Name:      s.VolumeName,
			MountPath: s.MountPath,
		}}
		podSpec.Volumes = []corev1.Volume{{
			Name: s.VolumeName,
			VolumeSource: corev1.VolumeSource{
				PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
					ClaimName: s.PVCName,
				},
			},
		}}
	}

	return &batchv1.Job{
		TypeMeta: metav1.TypeMeta{APIVersion: "batch/v1", Kind: "Job"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: s.Namespace,
			Labels:    labels(s.Labels, "true"),
		},
		Spec: batchv1.JobSpec{
			TTLSecondsAfterFinished: ptr.To(int32(s.RetentionPeriod.Seconds())),
			ActiveDeadlineSeconds:   ptr.To(s.JobTimeout.Seconds()),
			Template: corev1.PodTemplateSpec{
				Spec: podSpec,
			},
		},
	}
}

// PVC builds the PersistentVolumeClaim backing job data. Claims default to
// non-purgeable so cleanup never drops user data silently.
func PVC(s *spec.Spec) *corev1.PersistentVolumeClaim {
	modes := make([]corev1.PersistentVolumeAccessMode, len(s.AccessModes))
	for i, m := range s.AccessModes {
		modes[i] = corev1.PersistentVolumeAccessMode(m)
	}
	return &corev1.PersistentVolumeClaim{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "PersistentVolumeClaim"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      s.PVCName,
			Namespace: s.Namespace,
			Labels:    labels(s.Labels, "false"),
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			StorageClassName: ptr.To(s.StorageClass),
			AccessModes:      modes,
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: s.DiskQuantity(),
				},
			},
		},
	}
}

// DaemonSet builds the journal-monitor DaemonSet: a journalctl follower on
// every selected node, reading the host journal.
func DaemonSet(s *spec.Spec, command, args []string) *appsv1.DaemonSet {
	selector := map[string]string{"command": "journalctl"}
	podSpec := corev1.PodSpec{
		Containers: []corev1.Container{{
			Name:    "journalctl-follower",
			Image:   "rockylinux:8",
			Command: command,
			Args:    args,
			Env:     envVars(s.EnvVars),
			VolumeMounts: []corev1.VolumeMount{{
				Name:      "var-log-journal",
				MountPath: "/var/log/journal",
			}},
			SecurityContext: &corev1.SecurityContext{
				Capabilities: &corev1.Capabilities{
					Add: []corev1.Capability{"CAP_DAC_READ_SEARCH"},
				},
			},
		}},
		Volumes: []corev1.Volume{{
			Name: "var-log-journal",
			VolumeSource: corev1.VolumeSource{
				HostPath: &corev1.HostPathVolumeSource{Path: "/var/log/journal"},
			},
		}},
	}
	if len(s.NodeNames) > 0 {
		podSpec.Affinity = &corev1.Affinity{
			NodeAffinity: &corev1.NodeAffinity{
				RequiredDuringSchedulingIgnoredDuringExecution: requiredNodeNames(s.NodeNames),
			},
		}
	}
	return &appsv1.DaemonSet{
		TypeMeta: metav1.TypeMeta{APIVersion: "apps/v1", Kind: "DaemonSet"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      s.DaemonSetName,
			Namespace: s.Namespace,
			Labels:    labels(s.Labels, "true"),
		},
		Spec: appsv1.DaemonSetSpec{
			Selector: &metav1.LabelSelector{MatchLabels: selector},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: selector},
				Spec:       podSpec,
			},
		},
	}
}

// jobAffinity prefers scheduling away from control-plane nodes; NODE_NAMES
// pins pods to the named hosts.
func jobAffinity(nodeNames []string) *corev1.Affinity {
	affinity := &corev1.Affinity{
		NodeAffinity: &corev1.NodeAffinity{
			PreferredDuringSchedulingIgnoredDuringExecution: []corev1.PreferredSchedulingTerm{{
				Weight: 100,
				Preference: corev1.NodeSelectorTerm{
					MatchExpressions: []corev1.NodeSelectorRequirement{
						{Key: "node-role.kubernetes.io/master", Operator: corev1.NodeSelectorOpDoesNotExist},
						{Key: "node-role.kubernetes.io/control-plane", Operator: corev1.NodeSelectorOpDoesNotExist},
					},
				},
			}},
		},
	}
	if len(nodeNames) > 0 {
		affinity.NodeAffinity.RequiredDuringSchedulingIgnoredDuringExecution = requiredNodeNames(nodeNames)
	}
	return affinity
}

func requiredNodeNames(nodeNames []string) *corev1.NodeSelector {
	return &corev1.NodeSelector{
		NodeSelectorTerms: []corev1.NodeSelectorTerm{{
			MatchExpressions: []corev1.NodeSelectorRequirement{{
				Key:      "kubernetes.io/hostname",
				Operator: corev1.NodeSelectorOpIn,
				Values:   nodeNames,
			}},
		}},
	}
}

func labels(user map[string]string, purgeableDefault string) map[string]string {
	out := map[string]string{spec.VersionLabelKey: GeneratorVersion}
	maps.Copy(out, user)
	if _, ok := out[spec.PurgeableLabelKey]; !ok {
		out[spec.PurgeableLabelKey] = purgeableDefault
	}
	return out
}

func envVars(vars map[string]string) []corev1.EnvVar {
	if len(vars) == 0 {
		return nil
	}
	out := make([]corev1.EnvVar, 0, len(vars))
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		out = append(out, corev1.EnvVar{Name: k, Value: vars[k]})
	}
	return out
}

func orCurrentUID(v *int64) *int64 {
	if v != nil {
		return v
	}
	return ptr.To(int64(os.Geteuid()))
}

func orCurrentGID(v *int64) *int64 {
	if v != nil {
		return v
	}
	return ptr.To(int64(os.Getegid()))
}
