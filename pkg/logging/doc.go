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

// Package logging wraps log/slog with kubemover defaults: structured JSON
// to stderr, LOG_LEVEL environment configuration, module/version context on
// every record, and source locations at debug level.
//
// Set the default logger early in main():
//
//	logging.SetDefaultStructuredLogger("kubemover", version)
//
// and use slog as normal everywhere else:
//
//	slog.Info("job submitted", "job", name, "namespace", ns)
//	slog.Warn("wait timed out, cycling condition", "condition", cond)
//
// Supported levels (case-insensitive): DEBUG, INFO (default), WARN/WARNING,
// ERROR.
package logging
