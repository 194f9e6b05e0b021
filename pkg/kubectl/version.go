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
	"context"
	"encoding/json"
	"sync"

	"github.com/NVIDIA/kubemover/pkg/shell"
	"github.com/NVIDIA/kubemover/pkg/version"

	kmerrors "github.com/NVIDIA/kubemover/pkg/errors"
)

// VersionCache memoizes the kubectl client version for the commands whose
// form depends on it. Explicitly owned and injectable, so tests and
// multi-cluster callers control its lifetime.
type VersionCache struct {
	mu  sync.Mutex
	v   *version.Version
	err error
}

// Get returns the cached version, fetching once on first use. A fetch
// error is cached too; kubectl does not get more talkative by asking again.
func (vc *VersionCache) Get(ctx context.Context, fetch func(ctx context.Context) (version.Version, error)) (version.Version, error) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	if vc.v == nil && vc.err == nil {
		v, err := fetch(ctx)
		if err != nil {
			vc.err = err
		} else {
			vc.v = &v
		}
	}
	if vc.err != nil {
		return version.Version{}, vc.err
	}
	return *vc.v, nil
}

// Set primes the cache, for tests.
func (vc *VersionCache) Set(v version.Version) {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	vc.v, vc.err = &v, nil
}

// Version returns the kubectl client version.
func (c *Client) Version(ctx context.Context) (version.Version, error) {
	return c.versions.Get(ctx, c.fetchVersion)
}

func (c *Client) fetchVersion(ctx context.Context) (version.Version, error) {
	res, err := c.Run(ctx, "", "version", "--client", "--output", "json")
	if err != nil {
		return version.Version{}, err
	}
	var payload struct {
		ClientVersion struct {
			GitVersion string `json:"gitVersion"`
		} `json:"clientVersion"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &payload); err != nil {
		return version.Version{}, kmerrors.Wrap(kmerrors.ErrCodeInternal, "decoding kubectl version", err)
	}
	v, err := version.Parse(payload.ClientVersion.GitVersion)
	if err != nil {
		return version.Version{}, kmerrors.Wrap(kmerrors.ErrCodeInternal, "parsing kubectl version", err)
	}
	return v, nil
}

// eventsArgs picks the events subcommand form the client version supports.
func (c *Client) eventsArgs(ctx context.Context) []string {
	args := []string{"events"}
	if v, err := c.Version(ctx); err == nil {
		switch {
		case v.Less(version.MustParse("1.23")):
			args = []string{"get", "events", "--sort-by=.metadata.creationTimestamp"}
		case v.Less(version.MustParse("1.26")):
			args = []string{"alpha", "events"}
		}
	}
	return args
}

// Events prints namespace events sorted by creation time, picking the
// command form the client version supports. Best effort: failures are
// logged, never propagated.
func (c *Client) Events(ctx context.Context, namespace string) {
	if err := c.Stream(ctx, namespace, c.eventsArgs(ctx)...); err != nil {
		c.log().Warn("fetching namespace events failed", "namespace", namespace, "error", err)
	}
}

// DumpEvents writes namespace events to outputFile, with kubectl's stderr
// landing in a .err sibling when non-empty.
func (c *Client) DumpEvents(ctx context.Context, namespace, outputFile string) error {
	argv := c.args(namespace, c.eventsArgs(ctx)...)
	return shell.Dump(ctx, c.runner, argv, outputFile)
}
