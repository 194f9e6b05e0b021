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

package manifest

import (
	"fmt"
	"os"
	"regexp"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// Mask replaces secret values in logs and rendered manifests.
const Mask = "********"

// DefaultSecretKeys are the key names redacted when the caller passes none.
var DefaultSecretKeys = []string{
	"password", "data-access-key", "control-access-key", "access-key", "db-auth-key",
}

// Redact rewrites the file at path in place, masking the value following
// any of the given keys in `key=value`, `key: value`, and `key value`
// forms, case-insensitively.
func Redact(path string, keys []string) error {
	if len(keys) == 0 {
		keys = DefaultSecretKeys
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInternal, fmt.Sprintf("reading %s for redaction", path), err)
	}
	for _, key := range keys {
		for _, pattern := range []string{
			fmt.Sprintf(`(?i)(%s\s*[=:]\s*)\S+`, regexp.QuoteMeta(key)),
			fmt.Sprintf(`(?i)(%s\s+)\S+`, regexp.QuoteMeta(key)),
		} {
			content = regexp.MustCompile(pattern).ReplaceAll(content, []byte("${1}"+Mask))
		}
	}
	if err := os.WriteFile(path, content, 0o640); err != nil {
		return kmerrors.Wrap(kmerrors.ErrCodeInternal, fmt.Sprintf("writing redacted %s", path), err)
	}
	return nil
}
