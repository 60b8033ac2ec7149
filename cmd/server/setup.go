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

// Package main contains the setup and initialization logic for the
// application's state. This file is responsible for creating and managing a
// centralized state manager that holds all shared dependencies: the
// configuration, the Google Cloud service clients, the dataset read service,
// and the synchronization workflow.
//
// Functions:
//   - SetupOS: Configures the environment variables the configuration loader
//     uses to find the TOML files.
//   - GetConfig: A singleton function that loads the application's
//     configuration from TOML files only once.
//   - InitState: The core initialization function that creates all service
//     clients, configures the DatasetService, builds the sync workflow, and
//     starts the Pub/Sub listeners.
package main

import (
	"context"
	"log"
	"os"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/cloud"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/services"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/workflow"
)

// StateManager holds all the shared dependencies for the application, acting
// as a centralized container for service clients and configurations. This
// avoids the need for global variables and makes dependency management cleaner.
type StateManager struct {
	config         *cloud.Config
	cloud          *cloud.ServiceClients
	datasetService *services.DatasetService
	syncWorkflow   *workflow.DatasetSyncWorkflow
}

// state is a package-level variable that holds the single instance of StateManager.
var state = &StateManager{}

// SetupOS sets the environment variables the configuration loader uses to
// find the correct TOML files: the configuration directory prefix and the
// runtime environment (e.g., "local", "test", "prod"), which selects the
// environment-specific override file.
//
// Outputs:
//   - error: An error if setting any of the environment variables fails.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	// The config loader will look for a ".env.local.toml" file to override
	// base settings.
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides a singleton instance of the application configuration.
// On the first call it sets up the OS environment and loads the TOML files;
// subsequent calls return the cached configuration.
//
// Outputs:
//   - *cloud.Config: A pointer to the loaded application configuration struct.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the entire application state.
//
// Inputs:
//   - ctx: The root context.Context for the application, used for managing
//     the lifecycle of client connections and background processes.
//
// This function performs the following steps:
//  1. Loads the application configuration.
//  2. Initializes the Google Cloud service clients (Storage, BigQuery,
//     Pub/Sub, IAM) and the capability wrappers around them.
//  3. Instantiates the DatasetService used by the read endpoints.
//  4. Builds the dataset sync workflow shared by the HTTP trigger and the
//     Pub/Sub listeners, and starts the listeners.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}

	// The IAM credentials client signs image URLs on behalf of the configured
	// service account.
	iamClient, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		panic(err)
	}
	cloudClients.IAMClient = iamClient

	state.cloud = cloudClients

	state.datasetService = &services.DatasetService{
		BigqueryClient: cloudClients.BigQueryClient,
		StorageClient:  cloudClients.StorageClient,
		IAMClient:      cloudClients.IAMClient,
		SignerEmail:    config.Application.SignerServiceAccountEmail,
		DatasetName:    config.BigQueryDataSource.DatasetName,
		RecordTable:    config.BigQueryDataSource.RecordTable,
		Container:      config.Storage.Container,
		DatasetPrefix:  config.Storage.DatasetPrefix,
	}

	// One workflow instance serves both trigger paths. The commands are
	// stateless beyond their injected clients, so sharing is safe.
	state.syncWorkflow = workflow.NewDatasetSyncWorkflow(config, cloudClients)

	SetupListeners(config, cloudClients, ctx)
}
