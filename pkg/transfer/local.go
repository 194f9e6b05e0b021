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

package transfer

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Filesystem types that back onto the network; paths on these mounts are
// not local for transfer purposes.
var networkFSTypes = []string{"nfs", "cifs", "smb", "fuse", "gluster", "ceph"}

// IsPathLocal reports whether path exists on the local filesystem.
func IsPathLocal(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsPathLocalBestEffort reports whether path sits on a local (non-network)
// mount, judging by the mount table. The path itself need not exist.
func IsPathLocalBestEffort(path string) bool {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return true
	}
	defer f.Close()
	return isPathLocalFromMounts(f, path)
}

// isPathLocalFromMounts resolves path against a mount table in
// /proc/mounts format: the longest matching mountpoint decides.
func isPathLocalFromMounts(mounts io.Reader, path string) bool {
	bestLen := -1
	bestLocal := true
	scanner := bufio.NewScanner(mounts)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mountpoint, fstype := fields[1], fields[2]
		if !pathHasPrefix(path, mountpoint) || len(mountpoint) <= bestLen {
			continue
		}
		bestLen = len(mountpoint)
		bestLocal = !isNetworkFS(fstype)
	}
	return bestLocal
}

func pathHasPrefix(path, mountpoint string) bool {
	if mountpoint == "/" {
		return strings.HasPrefix(path, "/")
	}
	return path == mountpoint || strings.HasPrefix(path, mountpoint+"/")
}

func isNetworkFS(fstype string) bool {
	for _, prefix := range networkFSTypes {
		if strings.HasPrefix(fstype, prefix) {
			return true
		}
	}
	return false
}
