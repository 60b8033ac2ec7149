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

// Package services contains the business logic for interacting with data
// sources. This file defines the DatasetService, which reads back committed
// records from BigQuery and generates secure, time-limited URLs for the
// published dataset images in Google Cloud Storage (GCS).
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/model"
)

// DatasetService is a struct that encapsulates the clients and configuration
// needed to read published datasets back out. It acts as a data access layer,
// abstracting the details of interacting with BigQuery and GCS.
type DatasetService struct {
	BigqueryClient *bigquery.Client                  // Client for interacting with Google BigQuery.
	StorageClient  *storage.Client                   // Client for interacting with Google Cloud Storage.
	IAMClient      *credentials.IamCredentialsClient // Client for interacting with IAM, used for signing URLs.
	SignerEmail    string                            // The service account email used to sign URLs.
	DatasetName    string                            // The name of the BigQuery dataset.
	RecordTable    string                            // The name of the table holding synchronized records.
	Container      string                            // The GCS bucket the images are published to.
	DatasetPrefix  string                            // The object path prefix images live under (e.g., "DATASET").
}

// RecordStats is the aggregate shape of the destination table, served by the
// stats endpoint.
type RecordStats struct {
	RecordCount      int64 `bigquery:"record_count" json:"record_count"`
	DatasetCount     int64 `bigquery:"dataset_count" json:"dataset_count"`
	ContributorCount int64 `bigquery:"contributor_count" json:"contributor_count"`
}

// GetFQN (Get Fully Qualified Name) returns the complete, queryable name for
// the record table in BigQuery, formatted with dots instead of colons.
//
// Outputs:
//   - string: The fully qualified table name.
func (s *DatasetService) GetFQN() string {
	fqn := s.BigqueryClient.Dataset(s.DatasetName).Table(s.RecordTable).FullyQualifiedName()
	return strings.Replace(fqn, ":", ".", -1)
}

// Stats aggregates the destination table for the dashboard.
//
// Inputs:
//   - ctx: The context for the request, used for cancellation and tracing.
//
// Outputs:
//   - *RecordStats: The table aggregates.
//   - error: An error if the query fails.
func (s *DatasetService) Stats(ctx context.Context) (*RecordStats, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryRecordStats, s.GetFQN()))
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	stats := &RecordStats{}
	err = itr.Next(stats)
	return stats, err
}

// Records returns the committed rows for one dataset identifier, newest
// first. Rows come back as generic value maps because the table's column set
// follows the source workbook rather than a fixed schema.
//
// Inputs:
//   - ctx: The context for the request.
//   - id: The dataset identifier to look up.
//
// Outputs:
//   - []map[string]bigquery.Value: The matching rows.
//   - error: An error if the query fails.
func (s *DatasetService) Records(ctx context.Context, id string) ([]map[string]bigquery.Value, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryDatasetRecords, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "id", Value: id}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]bigquery.Value, 0)
	for {
		row := make(map[string]bigquery.Value)
		err := itr.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SignedImageURL creates a time-limited, secure URL for a dataset's canonical
// published image. This lets clients fetch the image directly from GCS
// without their own credentials. Signing goes through the IAM Credentials
// API, so no local service account key is needed when running on GCP
// infrastructure.
//
// Inputs:
//   - ctx: The context for the request.
//   - id: The dataset identifier whose canonical image is wanted.
//   - expires: The duration for which the URL will be valid.
//
// Outputs:
//   - string: The generated signed URL.
//   - error: An error if signing fails.
func (s *DatasetService) SignedImageURL(ctx context.Context, id string, expires time.Duration) (string, error) {
	objectName := model.CanonicalImagePath(s.DatasetPrefix, id)

	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}

	u, err := s.StorageClient.Bucket(s.Container).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", s.Container, objectName, err)
	}
	return u, nil
}
