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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/model"
)

const testTimestamp = "2024-10-11 08:04:08"

func testOptions() Options {
	return Options{
		DropColumns:      []string{"Unused_Column"},
		IdentifierColumn: "OldName",
		Container:        "dataset_sync_container",
		DatasetPrefix:    "DATASET",
		Repairs:          DefaultRepairTable(),
	}
}

func TestSheetDropRenameAndInject(t *testing.T) {
	header := []string{"OldName", "Unused_Column", "Owner"}
	rows := [][]string{
		{"DS-001", "noise", "team-a"},
		{"DS-002", "noise", "team-b"},
	}

	rs, err := Sheet(header, rows, "alice@example.com", testTimestamp, testOptions())
	assert.NoError(t, err)
	assert.Len(t, rs.Records, 2)

	assert.Equal(t, []string{
		model.FieldDatasetID, "Owner",
		model.FieldCreateDate, model.FieldLastModified,
		model.FieldCreatedBy, model.FieldImageLink,
	}, rs.Columns)

	first := rs.Records[0]
	assert.Equal(t, "DS-001", first.Get(model.FieldDatasetID))
	assert.Equal(t, "team-a", first.Get("Owner"))
	assert.Equal(t, testTimestamp, first.Get(model.FieldCreateDate))
	assert.Equal(t, testTimestamp, first.Get(model.FieldLastModified))
	assert.Equal(t, "alice@example.com", first.Get(model.FieldCreatedBy))
	assert.Equal(t, "/dataset_sync_container/DATASET/DS-001/DS-001.png", first.Get(model.FieldImageLink))

	// The dropped column must not leak through.
	assert.Equal(t, "", first.Get("Unused_Column"))
}

func TestSheetMissingColumnsToEditAreNoOps(t *testing.T) {
	// Neither the drop target nor the rename source is present, but the
	// canonical identifier column already is.
	header := []string{model.FieldDatasetID, "Owner"}
	rows := [][]string{{"DS-003", "team-c"}}

	rs, err := Sheet(header, rows, "alice@example.com", testTimestamp, testOptions())
	assert.NoError(t, err)
	assert.Equal(t, "DS-003", rs.Records[0].Get(model.FieldDatasetID))
}

func TestSheetWithoutIdentifierColumnFails(t *testing.T) {
	header := []string{"Owner", "Notes"}
	rows := [][]string{{"team-a", "n1"}}

	_, err := Sheet(header, rows, "alice@example.com", testTimestamp, testOptions())
	assert.Error(t, err)
}

func TestSheetPadsShortRows(t *testing.T) {
	header := []string{"OldName", "Owner", "Notes"}
	rows := [][]string{{"DS-004"}}

	rs, err := Sheet(header, rows, "alice@example.com", testTimestamp, testOptions())
	assert.NoError(t, err)
	assert.Equal(t, "", rs.Records[0].Get("Owner"))
	assert.Equal(t, "", rs.Records[0].Get("Notes"))
}

func TestSheetRepairsRunLastOverEveryField(t *testing.T) {
	// A corrupted identifier must come out corrected both in the identifier
	// field and in the image link derived from it.
	header := []string{"OldName", "Owner"}
	rows := [][]string{{"Ð¢-100", "Ðšteam"}}

	rs, err := Sheet(header, rows, "alice@example.com", testTimestamp, testOptions())
	assert.NoError(t, err)

	r := rs.Records[0]
	assert.Equal(t, "T-100", r.Get(model.FieldDatasetID))
	assert.Equal(t, "Kteam", r.Get("Owner"))
	assert.Equal(t, "/dataset_sync_container/DATASET/T-100/T-100.png", r.Get(model.FieldImageLink))
}

func TestSheetEmptyIdentifierIsStampedVerbatim(t *testing.T) {
	header := []string{"OldName"}
	rows := [][]string{{"DS-005"}}

	rs, err := Sheet(header, rows, "", testTimestamp, testOptions())
	assert.NoError(t, err)
	assert.Equal(t, "", rs.Records[0].Get(model.FieldCreatedBy))
}

func TestRepairTableMergeAndApply(t *testing.T) {
	table := DefaultRepairTable().Merge(map[string]string{"Ð": "M"})

	assert.Equal(t, "TKM", table.Apply("Ð¢ÐšÐ"))
	assert.Equal(t, "clean", table.Apply("clean"))
}

func TestRepairTableOverlappingKeysApplyLongestFirst(t *testing.T) {
	// A configured single-character entry is a prefix of the default
	// two-character sequences. The longer sequences must win every run; if
	// the short entry ever ran first it would split them into unrepairable
	// fragments.
	table := DefaultRepairTable().Merge(map[string]string{"Ð": "M"})

	// Map iteration order is randomized, so a single pass could mask an
	// order dependence.
	for i := 0; i < 32; i++ {
		assert.Equal(t, "TKM", table.Apply("Ð¢ÐšÐ"))
	}
}
