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

package spec

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeyCase names a spec-key convention.
type KeyCase string

const (
	// UpperSnakeCase is the spec-file convention (JOB_TIMEOUT).
	UpperSnakeCase KeyCase = "UPPER_SNAKE_CASE"
	// CamelBackCase is the Kubernetes field convention (jobTimeout).
	CamelBackCase KeyCase = "camelBackCase"
)

var titler = cases.Title(language.English)

// CamelToUpperSnake converts camelBack or CamelCase to UPPER_SNAKE_CASE.
// Runs of capitals stay fused: "nodeIP" becomes "NODE_IP".
func CamelToUpperSnake(key string) string {
	var b strings.Builder
	runes := []rune(key)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// SnakeToCamelBack converts SNAKE_CASE to camelBackCase.
func SnakeToCamelBack(key string) string {
	parts := strings.Split(strings.ToLower(key), "_")
	for i := 1; i < len(parts); i++ {
		parts[i] = titler.String(parts[i])
	}
	return strings.Join(parts, "")
}

// ConvertKeys rewrites all map keys in a decoded YAML/JSON tree to the
// target case, recursing through nested maps and lists. Subtrees whose key
// starts with any of skipPrefixes pass through untouched, so embedded
// Kubernetes snippets keep their native field names.
func ConvertKeys(input any, target KeyCase, skipPrefixes ...string) any {
	switch v := input.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			if hasAnyPrefix(key, skipPrefixes) {
				out[key] = value
				continue
			}
			out[convertKey(key, target)] = ConvertKeys(value, target, skipPrefixes...)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = ConvertKeys(item, target, skipPrefixes...)
		}
		return out
	default:
		return input
	}
}

func convertKey(key string, target KeyCase) string {
	switch target {
	case CamelBackCase:
		return SnakeToCamelBack(key)
	default:
		return CamelToUpperSnake(key)
	}
}

func hasAnyPrefix(key string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
