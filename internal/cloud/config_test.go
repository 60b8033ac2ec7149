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

package cloud

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/zeebo/assert"
)

const baseToml = `
[application]
name = "dataset-sync"
google_project_id = "base-project"

[storage]
container = "base-container"
dataset_prefix = "DATASET"
current_prefix = "DATASET/Current"

[ingest]
sheet_name = "Sheet1"
timezone = "Asia/Tashkent"
skip_leading_sheets = 4
excluded_coordinates = ["A1", "K1", "L1", "M3", "I1"]

[ingest.repairs]
"Ð¢" = "T"

[topic_subscriptions.WorkbookUploadTopic]
name = "workbook-upload-sub"
timeout_in_seconds = 60
`

const overrideToml = `
[application]
google_project_id = "unit-project"

[storage]
container = "unit-container"
`

func TestLoadConfigAppliesRuntimeOverrides(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte(baseToml), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(dir, ".env.unit.toml"), []byte(overrideToml), 0o644))

	t.Setenv(EnvConfigFilePrefix, dir)
	t.Setenv(EnvConfigRuntime, "unit")

	config := NewConfig()
	LoadConfig(&config)

	// Untouched base values survive the overlay.
	assert.Equal(t, "dataset-sync", config.Application.Name)
	assert.Equal(t, "DATASET/Current", config.Storage.CurrentPrefix)
	assert.Equal(t, "Sheet1", config.Ingest.SheetName)
	assert.Equal(t, 4, config.Ingest.SkipLeadingSheets)
	assert.Equal(t, "T", config.Ingest.Repairs["Ð¢"])
	assert.Equal(t, "workbook-upload-sub", config.TopicSubscriptions["WorkbookUploadTopic"].Name)

	// Overridden values take the runtime file's content.
	assert.Equal(t, "unit-project", config.Application.GoogleProjectId)
	assert.Equal(t, "unit-container", config.Storage.Container)
}

func TestGCSPubSubNotificationParsesObjectFields(t *testing.T) {
	payload := `{
		"kind": "storage#object",
		"name": "DATASET/Current_alice@example.com.xlsx",
		"bucket": "dataset_sync_container",
		"contentType": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"size": "524288"
	}`

	notification := &GCSPubSubNotification{}
	assert.NoError(t, json.Unmarshal([]byte(payload), notification))
	assert.Equal(t, "DATASET/Current_alice@example.com.xlsx", notification.Name)
	assert.Equal(t, "dataset_sync_container", notification.Bucket)
}
