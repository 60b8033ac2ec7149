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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files. It provides a structured way to manage settings
// for the storage container, the BigQuery destination table, the Pub/Sub
// trigger subscriptions, and the workbook ingestion rules.
//
// Structs:
//   - Storage: Configuration for the object-storage container and path prefixes.
//   - BigQueryDataSource: Configuration for the BigQuery dataset and table.
//   - TopicSubscription: Configuration for a single Pub/Sub topic subscription.
//   - Ingest: The workbook ingestion rules (sheet selection, column edits,
//     excluded coordinates, character repairs).
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with empty maps.
package cloud

// Storage represents the configuration for the object-storage container that
// holds source workbooks and published images.
type Storage struct {
	Container     string `toml:"container"`      // The name of the bucket acting as the dataset container.
	DatasetPrefix string `toml:"dataset_prefix"` // The root prefix for all dataset objects (e.g., "DATASET").
	CurrentPrefix string `toml:"current_prefix"` // The listing prefix for current source workbooks (e.g., "DATASET/Current").
}

// BigQueryDataSource represents the configuration for the destination table.
// The table is assumed to be pre-provisioned; rows are only ever appended.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"` // The name of the BigQuery dataset.
	RecordTable string `toml:"table"`   // The name of the table that receives normalized workbook rows.
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic  string `toml:"dead_letter_topic"`  // The name of the dead-letter topic for the subscription.
	TimeoutInSeconds int    `toml:"timeout_in_seconds"` // The timeout for the subscription in seconds.
}

// Ingest holds the workbook ingestion rules. These were inline literals in the
// original tooling; they are configuration data, so they live here with named
// options instead.
type Ingest struct {
	SheetName           string            `toml:"sheet_name"`            // The name of the sheet holding tabular records (e.g., "Sheet1").
	DropColumns         []string          `toml:"drop_columns"`          // Columns removed before loading; missing columns are a no-op.
	IdentifierColumn    string            `toml:"identifier_column"`     // The source column renamed to the canonical identifier field.
	Timezone            string            `toml:"timezone"`              // The fixed named timezone for request timestamps (e.g., "Asia/Tashkent").
	SkipLeadingSheets   int               `toml:"skip_leading_sheets"`   // Number of leading sheets that never carry images (template convention).
	ExcludedCoordinates []string          `toml:"excluded_coordinates"`  // Cell coordinates never treated as image-bearing (e.g., "A1").
	Repairs             map[string]string `toml:"repairs"`               // Corrupted-to-correct substring repairs applied to all text fields.
	UploadsPerSecond    int               `toml:"uploads_per_second"`    // Rate limit for image publishes against the container.
	CallTimeoutSeconds  int               `toml:"call_timeout_seconds"`  // Per-remote-call timeout; exceeding it is a transient failure.
}

// Config represents the overall configuration for the application, loaded from
// TOML files. It acts as the root container for all other configuration structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name                      string `toml:"name"`                         // The name of the application.
		GoogleProjectId           string `toml:"google_project_id"`            // The Google Cloud project ID.
		GoogleLocation            string `toml:"location"`                     // The Google Cloud location.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // The service account email used for signing GCS URLs.
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`               // Object-storage configuration.
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"` // BigQuery destination configuration.
	Ingest             Ingest                       `toml:"ingest"`                // Workbook ingestion rules.
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`   // Pub/Sub topic subscriptions, keyed by a logical name.
}

// NewConfig is a constructor function that creates a new, initialized Config
// instance. The maps within the struct must be initialized to avoid nil map
// writes when the configuration loader populates them.
func NewConfig() *Config {
	cfg := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
	}
	cfg.Ingest.Repairs = make(map[string]string)
	return cfg
}
