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

// Package test provides utility functions and mock data to support the
// application's test suite: test-specific configuration loading, sample
// Pub/Sub payloads, in-memory fakes for the storage and table capabilities,
// and workbook fixtures.
package test

import (
	"log"
	"os"
	"testing"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/cloud"
)

// StateManager acts as a simple in-memory cache for the application
// configuration during test runs, so the TOML files are parsed once per
// suite.
type StateManager struct {
	config *cloud.Config
}

// state holds the singleton StateManager for the test run.
var state = &StateManager{}

// HandleErr fails the test when err is non-nil. A convenience to cut
// boilerplate error checks in tests.
//
// Inputs:
//   - err: The error to check.
//   - t: The *testing.T object from the current test.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestUploadMessageText returns a JSON string simulating the Pub/Sub
// notification GCS emits when a caller's workbook lands in the container.
// The object name follows the upload convention the trigger reader parses.
//
// Returns:
//   - A string containing the JSON payload of a GCS notification.
func GetTestUploadMessageText() string {
	return `{
  "kind": "storage#object",
  "id": "dataset_sync_container/DATASET/Current_alice@example.com.xlsx/1728615848664286",
  "selfLink": "https://www.googleapis.com/storage/v1/b/dataset_sync_container/o/DATASET%2FCurrent_alice@example.com.xlsx",
  "name": "DATASET/Current_alice@example.com.xlsx",
  "bucket": "dataset_sync_container",
  "generation": "1728615848664286",
  "metageneration": "1",
  "contentType": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
  "timeCreated": "2024-10-11T03:04:08.672Z",
  "updated": "2024-10-11T03:04:08.672Z",
  "storageClass": "STANDARD",
  "timeStorageClassUpdated": "2024-10-11T03:04:08.672Z",
  "size": "524288",
  "md5Hash": "67c1rAU+1RYZzK5zp8iBkA==",
  "mediaLink": "https://storage.googleapis.com/download/storage/v1/b/dataset_sync_container/o/DATASET%2FCurrent_alice@example.com.xlsx?generation=1728615848664286&alt=media",
  "metadata": { "touch": "18" },
  "crc32c": "IYeSTw==",
  "etag": "CN658+yrhYkDEAE="
	}`
}

// SetupOS configures the environment variables the configuration loader
// depends on, pointing it at the test-specific configuration files
// (`configs/.env.test.toml`).
//
// Returns:
//   - An error if setting any environment variable fails.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration. The TOML
// files are loaded once and cached for subsequent calls.
//
// Returns:
//   - A pointer to the loaded and cached cloud.Config struct.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}
