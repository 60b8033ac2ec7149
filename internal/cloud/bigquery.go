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
// This file defines the RecordSink capability: append-rows-to-named-table with
// "if table exists, append" semantics. The destination table is pre-provisioned;
// this component never creates schema, never updates, and never deletes rows.
//
// The production implementation streams rows through a BigQuery Inserter,
// which is more efficient than individual INSERT statements and maps struct
// values to table columns through the bigquery.ValueSaver interface.
package cloud

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// RecordSink is the relational capability consumed by the pipeline: append
// rows to a fixed destination table. Duplicate appends on repeated invocations
// with the same source file are possible and accepted.
type RecordSink interface {
	// Append inserts every row as a new record. Any connection or constraint
	// error fails the whole batch.
	Append(ctx context.Context, rows []bigquery.ValueSaver) error
	// TableSpec returns the qualified destination table name, used in commit
	// receipts and log lines.
	TableSpec() string
}

// BigQueryRecordSink implements RecordSink against a single BigQuery table.
type BigQueryRecordSink struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewBigQueryRecordSink is the constructor for BigQueryRecordSink.
//
// Inputs:
//   - client: An initialized *bigquery.Client.
//   - dataset: The name of the BigQuery dataset.
//   - table: The name of the destination table within the dataset.
func NewBigQueryRecordSink(client *bigquery.Client, dataset string, table string) *BigQueryRecordSink {
	return &BigQueryRecordSink{client: client, dataset: dataset, table: table}
}

// TableSpec returns the qualified destination table name, used in commit
// receipts and log lines.
func (s *BigQueryRecordSink) TableSpec() string {
	return fmt.Sprintf("%s.%s", s.dataset, s.table)
}

// Append streams the rows into the destination table through an Inserter.
func (s *BigQueryRecordSink) Append(ctx context.Context, rows []bigquery.ValueSaver) error {
	inserter := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("bigquery insert failed for table '%s': %w", s.TableSpec(), err)
	}
	return nil
}
