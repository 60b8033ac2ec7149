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

// Package main contains the logic for setting up and starting the Pub/Sub
// message listeners. The workbook-upload listener reacts to GCS object
// notifications and runs the same sync pipeline the HTTP endpoint uses, so a
// dataset freshly uploaded to the container synchronizes without anyone
// calling the API.
//
// Functions:
//   - SetupListeners: Initializes and starts the listener for the
//     workbook-upload topic, attaching the trigger workflow.
package main

import (
	"context"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/cloud"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/workflow"
)

// SetupListeners configures and starts the background Pub/Sub listeners.
//
// Inputs:
//   - config: The application's configuration.
//   - cloudClients: A struct containing all the initialized Google Cloud
//     service clients.
//   - ctx: The application's root context, used to manage the lifecycle of
//     the listeners.
//
// Outputs:
//   - This function does not return any value. It starts the listeners as
//     background goroutines.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	// A deployment without the upload trigger configured is valid; the HTTP
	// surface still drives synchronization on demand.
	listener, ok := cloudClients.PubSubListeners["WorkbookUploadTopic"]
	if !ok {
		return
	}

	trigger := workflow.NewDatasetSyncTriggerWorkflow(config, state.syncWorkflow)
	listener.SetCommand(trigger)
	listener.Listen(ctx)
}
