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

package test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func TestGetConfigIsCached(t *testing.T) {
	first := GetConfig()
	second := GetConfig()

	// The loader runs once; subsequent calls return the cached instance.
	assert.Same(t, first, second)
	assert.Equal(t, "test", os.Getenv("GCP_RUNTIME"))
}

func TestBuildWorkbookProducesReadableSheets(t *testing.T) {
	content, err := BuildWorkbook(WorkbookSpec{
		SheetName:     "Records",
		Header:        []string{"OldName", "Owner"},
		Rows:          [][]string{{"DS-001", "team-a"}},
		LeadingSheets: []string{"Info"},
	})
	HandleErr(err, t)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	HandleErr(err, t)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Records", "Info"}, f.GetSheetList())

	rows, err := f.GetRows("Records")
	HandleErr(err, t)
	assert.Equal(t, [][]string{{"OldName", "Owner"}, {"DS-001", "team-a"}}, rows)
}
