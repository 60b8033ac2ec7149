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

// Package normalize turns raw sheet rows into normalized records. The steps
// run in a fixed order, and each column edit is individually tolerant of a
// missing target column (dropping or renaming a column that is not present is
// a no-op, never an error):
//
//  1. Drop the configured columns.
//  2. Rename the configured source column to the canonical identifier field.
//  3. Inject Create_date and Last_modified with the shared request timestamp.
//  4. Inject Created_by with the caller identifier, verbatim.
//  5. Derive Image_link from the identifier field value.
//  6. Apply the character repair table across all text fields.
//
// Normalization is all-or-nothing for the sheet: a missing identifier column
// fails every row rather than producing records with broken image links.
package normalize

import (
	"fmt"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/model"
)

// Options carries the normalization rules, lifted from the ingest
// configuration.
type Options struct {
	DropColumns      []string    // Columns removed if present.
	IdentifierColumn string      // Source column renamed to model.FieldDatasetID if present.
	Container        string      // Container name used in derived image links.
	DatasetPrefix    string      // Dataset path prefix used in derived image links.
	Repairs          RepairTable // Character corrections applied to every value.
}

// Sheet normalizes one parsed sheet. The header supplies the column order;
// each row is positional against that header. The identifier and timestamp
// are stamped onto every record.
//
// Inputs:
//   - header: The sheet's first row, i.e. the column names in sheet order.
//   - rows: The data rows. Short rows are padded with empty values.
//   - identifier: The caller identifier, possibly empty.
//   - timestamp: The formatted request timestamp shared by the whole invocation.
//   - opts: The normalization rules.
//
// Outputs:
//   - *model.RecordSet: The normalized rows, ready for loading.
//   - error: A fatal error when the identifier column cannot be resolved.
func Sheet(header []string, rows [][]string, identifier string, timestamp string, opts Options) (*model.RecordSet, error) {
	dropped := make(map[string]bool, len(opts.DropColumns))
	for _, col := range opts.DropColumns {
		dropped[col] = true
	}

	// Build the output column order: surviving source columns (renamed where
	// configured) followed by the injected metadata fields.
	columns := make([]string, 0, len(header)+4)
	sourceIndex := make([]int, 0, len(header))
	for i, col := range header {
		if dropped[col] {
			continue
		}
		if col == opts.IdentifierColumn {
			col = model.FieldDatasetID
		}
		columns = append(columns, col)
		sourceIndex = append(sourceIndex, i)
	}

	hasIdentifier := false
	for _, col := range columns {
		if col == model.FieldDatasetID {
			hasIdentifier = true
			break
		}
	}
	// Image_link derives from the identifier field, so its absence fails the
	// whole sheet.
	if !hasIdentifier {
		return nil, fmt.Errorf("sheet has no %q column (and no %q column to rename)", model.FieldDatasetID, opts.IdentifierColumn)
	}

	columns = append(columns, model.FieldCreateDate, model.FieldLastModified, model.FieldCreatedBy, model.FieldImageLink)

	records := make([]*model.Record, 0, len(rows))
	for _, row := range rows {
		values := make(map[string]string, len(columns))
		for outIdx, srcIdx := range sourceIndex {
			value := ""
			if srcIdx < len(row) {
				value = row[srcIdx]
			}
			values[columns[outIdx]] = value
		}
		values[model.FieldCreateDate] = timestamp
		values[model.FieldLastModified] = timestamp
		values[model.FieldCreatedBy] = identifier
		values[model.FieldImageLink] = model.RecordImageLink(opts.Container, opts.DatasetPrefix, values[model.FieldDatasetID])

		// Repairs run last, over every field, so a corrupted identifier and
		// the link derived from it are corrected consistently.
		for col, value := range values {
			values[col] = opts.Repairs.Apply(value)
		}

		records = append(records, &model.Record{Columns: columns, Values: values})
	}

	return &model.RecordSet{
		Identifier: identifier,
		Timestamp:  timestamp,
		Columns:    columns,
		Records:    records,
	}, nil
}
