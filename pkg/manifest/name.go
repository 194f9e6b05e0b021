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
	"crypto/md5"
	"fmt"
)

// MaxResourceNameLen is the Kubernetes resource name limit.
const MaxResourceNameLen = 63

const truncateHashLen = 4

// Truncate shortens s to maxLen, replacing the cut tail with a short md5
// salt of the full string so distinct long names stay distinct.
func Truncate(s string, maxLen, hashLen int, suffix string) string {
	if len(s) <= maxLen {
		return s
	}
	salt := fmt.Sprintf("%x", md5.Sum([]byte(s)))[:hashLen]
	return s[:maxLen-hashLen-len(suffix)] + salt + suffix
}

// TruncateMiddle shortens s to the resource name limit by salting out the
// middle, keeping both the distinguishing prefix and suffix readable.
func TruncateMiddle(s string) string {
	const delimiter = "-"
	if len(s) <= MaxResourceNameLen {
		return s
	}
	upto := (MaxResourceNameLen + truncateHashLen + len(delimiter)) / 2
	from := (MaxResourceNameLen - truncateHashLen - len(delimiter)) / 2
	return Truncate(s[:upto+1], upto, truncateHashLen, delimiter) + s[len(s)-from:]
}
