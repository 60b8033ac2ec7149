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

package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The path conventions are a fixed external contract; these literals pin the
// exact shapes consumers depend on.

func TestRecordImageLink(t *testing.T) {
	assert.Equal(t,
		"/dataset_sync_container/DATASET/DS-001/DS-001.png",
		RecordImageLink("dataset_sync_container", "DATASET", "DS-001"))
}

func TestCanonicalImagePath(t *testing.T) {
	assert.Equal(t, "DATASET/Q3/Q3.png", CanonicalImagePath("DATASET", "Q3"))
}

func TestArchiveImagePath(t *testing.T) {
	assert.Equal(t,
		"DATASET/Q3/Archive/Q3_2024-10-11 08:04:08.png",
		ArchiveImagePath("DATASET", "Q3", "2024-10-11 08:04:08"))
}

func TestRecordSaveUsesServiceAssignedInsertID(t *testing.T) {
	r := &Record{
		Columns: []string{"DATASET_ID", "Owner"},
		Values:  map[string]string{"DATASET_ID": "DS-001", "Owner": "team-a"},
	}
	values, insertID, err := r.Save()
	assert.NoError(t, err)
	assert.Equal(t, "", insertID)
	assert.Equal(t, "DS-001", values["DATASET_ID"])
	assert.Equal(t, "team-a", values["Owner"])
}

func TestPublishReportCounts(t *testing.T) {
	report := NewPublishReport()
	imgA := &SheetImage{Sheet: "Q1", Cell: "B2", TargetPath: "DATASET/Q1/Q1.png"}
	imgB := &SheetImage{Sheet: "Q2", Cell: "B3", TargetPath: "DATASET/Q2/Q2.png"}
	imgC := &SheetImage{Sheet: "Q3", Cell: "B4", TargetPath: "DATASET/Q3/Q3.png"}

	report.AddSuccess(imgA, "")
	report.AddSuccess(imgB, "DATASET/Q2/Archive/Q2_2024-10-11 08:04:08.png")
	report.AddFailure(imgC, errors.New("write quota exceeded"))

	assert.Equal(t, 2, report.Published())
	assert.Equal(t, 1, report.Archived())
	assert.Equal(t, 1, report.Failed())

	failures := report.Failures()
	assert.Len(t, failures, 1)
	assert.Equal(t, "Q3", failures[0].Sheet)
	assert.Equal(t, "write quota exceeded", failures[0].Error)
}
