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

// Package shell is the subprocess boundary for every cluster interaction.
// All kubectl traffic flows through a Runner: Run captures output, Stream
// forwards it line by line to the structured logger, Dump persists stdout
// to a file for audit. The exec layer (k8s.io/utils/exec) is injectable,
// and the shelltest subpackage provides a scripted fake for consumers'
// tests.
package shell
