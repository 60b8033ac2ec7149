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

// Package model defines the core data structures for the application.
// This file holds the normalized tabular record and its BigQuery mapping.
// Because the workbook's column set is not fixed, a Record carries its values
// as an ordered column list plus a value map and implements
// `bigquery.ValueSaver` so the streaming Inserter can map dynamic columns to
// the pre-provisioned destination table.
package model

import (
	"cloud.google.com/go/bigquery"
)

// Canonical field names injected into every normalized record.
const (
	FieldDatasetID    = "DATASET_ID"    // The canonical identifier field, renamed from the source column.
	FieldCreateDate   = "Create_date"   // The request timestamp, formatted in the fixed timezone.
	FieldLastModified = "Last_modified" // Same timestamp as FieldCreateDate on initial load.
	FieldCreatedBy    = "Created_by"    // The caller identifier, verbatim (including empty).
	FieldImageLink    = "Image_link"    // The derived storage path for the record's image.
)

// Record is one normalized tabular row destined for the destination table.
// Columns preserves the sheet's header order plus the injected fields; Values
// maps column name to cell value. A Record is created once, written once, and
// never updated by this pipeline.
type Record struct {
	Columns []string          // Column names in output order.
	Values  map[string]string // Cell values keyed by column name.
}

// Get returns the value for a column, or the empty string when the column is
// absent.
func (r *Record) Get(column string) string {
	return r.Values[column]
}

// Save implements bigquery.ValueSaver. Every column becomes a table value;
// the empty insert ID lets the service assign one, which means repeated loads
// of the same source file append duplicate rows (an accepted non-goal).
func (r *Record) Save() (map[string]bigquery.Value, string, error) {
	out := make(map[string]bigquery.Value, len(r.Columns))
	for _, col := range r.Columns {
		out[col] = r.Values[col]
	}
	return out, "", nil
}

// RecordSet is the ordered result of normalizing one sheet: every row of the
// named sheet, plus the invocation metadata shared by all of them.
type RecordSet struct {
	Identifier string    // The caller identifier the workbook was located with.
	Timestamp  string    // The single request-time timestamp stamped on every record.
	Columns    []string  // The normalized column order.
	Records    []*Record // The normalized rows, in sheet order.
}

// Savers adapts the record set for the BigQuery Inserter.
func (rs *RecordSet) Savers() []bigquery.ValueSaver {
	out := make([]bigquery.ValueSaver, 0, len(rs.Records))
	for _, r := range rs.Records {
		out = append(out, r)
	}
	return out
}

// CommitReceipt is the typed proof that the relational append completed. The
// image stages take this receipt as their input, so they cannot run unless
// the load succeeded; the published image links then refer to rows that are
// known to exist.
type CommitReceipt struct {
	InvocationID string // A unique id for this invocation, shared across log lines and the response body.
	Table        string // The qualified destination table the rows were appended to.
	RowCount     int    // The number of rows committed.
	Timestamp    string // The invocation timestamp, reused for archive suffixes.
}
