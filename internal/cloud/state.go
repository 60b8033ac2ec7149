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

// Package cloud provides components for interacting with Google Cloud services.
// This file is responsible for initializing and holding all the client objects
// needed to communicate with those services. It acts as a dependency injection
// container, creating a single shared `ServiceClients` struct that is passed
// throughout the application.
//
// Logic Flow:
//  1. `NewCloudServiceClients` is called at application startup with the
//     loaded configuration.
//  2. It initializes clients for Storage, BigQuery, and Pub/Sub.
//  3. It wraps the storage client in the ObjectStore capability (throttled per
//     the ingest configuration) and the BigQuery client in the RecordSink.
//  4. It creates a PubSubListener for each configured subscription; their
//     commands are attached later when the workflows are built.
//
// Structs:
//   - ServiceClients: A container holding all initialized Google Cloud service
//     clients and capability wrappers.
//
// Functions:
//   - Close: A convenience method to gracefully shut down all client connections.
//   - NewCloudServiceClients: A factory that creates and configures all
//     necessary clients based on the application's configuration.
package cloud

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
)

// ServiceClients is a central container for all the clients that interact with
// external Google Cloud services, plus the capability wrappers the pipeline
// commands consume.
type ServiceClients struct {
	StorageClient   *storage.Client                   // Client for Google Cloud Storage (GCS).
	BigQueryClient  *bigquery.Client                  // Client for Google Cloud BigQuery.
	PubsubClient    *pubsub.Client                    // Client for Google Cloud Pub/Sub.
	IAMClient       *credentials.IamCredentialsClient // Client for IAM, used when signing image URLs.
	ObjectStore     ObjectStore                       // The container-scoped object storage capability.
	RecordSink      RecordSink                        // The append-only destination table capability.
	PubSubListeners map[string]*PubSubListener        // Active Pub/Sub listeners, keyed by a logical name from the config.
}

// Close is a utility method to gracefully shut down all the active client
// connections. Client lifecycles are normally tied to the root context, but an
// explicit release is useful in tests and controlled shutdowns.
func (c *ServiceClients) Close() {
	_ = c.StorageClient.Close()
	_ = c.BigQueryClient.Close()
	_ = c.PubsubClient.Close()
}

// NewCloudServiceClients is a factory function that initializes all required
// Google Cloud service clients based on the provided configuration.
//
// Inputs:
//   - ctx: The root context.Context for the application, used to manage the
//     lifecycle of the clients.
//   - config: A pointer to the loaded application configuration.
//
// Outputs:
//   - *ServiceClients: A pointer to the fully initialized ServiceClients struct.
//   - error: An error if any of the clients fail to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	// Create a new Google Cloud Storage client.
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	// Create a new Google Cloud BigQuery client.
	bc, err := bigquery.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	// Create a new Google Cloud Pub/Sub client for the workbook-upload trigger.
	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	// Wrap the storage client in the ObjectStore capability. All pipeline
	// writes go through the throttled decorator so image fan-out stays inside
	// the container's write quota and every remote call carries a deadline.
	store := NewGCSObjectStore(sc, config.Storage.Container)
	throttled := NewThrottledObjectStore(
		store,
		config.Ingest.UploadsPerSecond,
		time.Duration(config.Ingest.CallTimeoutSeconds)*time.Second,
	)

	// Wrap the BigQuery client in the append-only RecordSink capability.
	sink := NewBigQueryRecordSink(bc, config.BigQueryDataSource.DatasetName, config.BigQueryDataSource.RecordTable)

	// Create a PubSubListener for each configured subscription. The command is
	// initially nil; it is attached when the workflows are built.
	subscriptions := make(map[string]*PubSubListener)
	for subKey := range config.TopicSubscriptions {
		values := config.TopicSubscriptions[subKey]
		actual, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = actual
	}

	cloud = &ServiceClients{
		StorageClient:   sc,
		BigQueryClient:  bc,
		PubsubClient:    pc,
		ObjectStore:     throttled,
		RecordSink:      sink,
		PubSubListeners: subscriptions,
	}

	return cloud, err
}
