// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package normalize

import (
	"sort"
	"strings"
)

// RepairTable maps known corrupted substrings to their corrections. The
// entries are literal string replacements, not patterns: the corruption comes
// from workbooks whose Cyrillic text was saved through a wrong code page, and
// each observed artifact gets one entry. The table is deliberately open-ended;
// new mojibake sequences pass through uncorrected until they are added here
// (or to the [ingest.repairs] section of the configuration, which is merged
// on top of the defaults).
type RepairTable map[string]string

// DefaultRepairTable returns the corrections observed in production
// workbooks so far.
func DefaultRepairTable() RepairTable {
	return RepairTable{
		"Ð¢": "T",
		"Ðš": "K",
	}
}

// Merge overlays additional corrections on top of the table and returns the
// receiver for chaining. Later entries win on key collisions.
func (t RepairTable) Merge(extra map[string]string) RepairTable {
	for k, v := range extra {
		t[k] = v
	}
	return t
}

// Apply rewrites every known corrupted substring in the input. Longer
// sequences are replaced first, in a fixed key order, so a configured entry
// that is a prefix of another can never preempt it and the same input always
// produces the same output.
func (t RepairTable) Apply(in string) string {
	keys := make([]string, 0, len(t))
	for corrupted := range t {
		keys = append(keys, corrupted)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	out := in
	for _, corrupted := range keys {
		out = strings.ReplaceAll(out, corrupted, t[corrupted])
	}
	return out
}
