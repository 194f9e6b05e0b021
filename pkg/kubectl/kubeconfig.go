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

package kubectl

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// DefaultKubeconfig resolves the kubeconfig path the way kubectl does:
// KUBECONFIG env var, then ~/.kube/config.
func DefaultKubeconfig() string {
	if env := os.Getenv(clientcmd.RecommendedConfigPathEnvVar); env != "" {
		return env
	}
	return filepath.Join(homedir.HomeDir(), ".kube", "config")
}

// ValidateContext parses the kubeconfig locally and checks the named
// context exists. Context name may be empty, meaning current-context.
func ValidateContext(kubeconfig, contextName string) error {
	cfg, err := clientcmd.LoadFromFile(kubeconfig)
	if err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInvalidRequest,
			fmt.Sprintf("loading kubeconfig %s", kubeconfig), err)
	}
	if contextName == "" {
		contextName = cfg.CurrentContext
	}
	if contextName == "" {
		return kmerrors.Newf(kmerrors.ErrCodeInvalidRequest,
			"kubeconfig %s has no current context", kubeconfig)
	}
	if _, ok := cfg.Contexts[contextName]; !ok {
		return kmerrors.Newf(kmerrors.ErrCodeInvalidRequest,
			"context %q not found in %s", contextName, kubeconfig)
	}
	return nil
}
