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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (CoR) pattern's Command interface. This file defines the
// tabular stage of the sync pipeline: parsing the record sheet out of the
// workbook and normalizing its rows.
//
// Logic Flow:
//  1. Open the workbook bytes with excelize.
//  2. Read the named record sheet; a missing or unreadable sheet is fatal for
//     the whole invocation (all-or-nothing normalization).
//  3. Compute the invocation timestamp once, in the configured timezone, and
//     publish it to the context for the archive paths downstream.
//  4. Hand header and rows to the normalize package and emit the RecordSet.
package commands

import (
	"bytes"
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/cor"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/model"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/normalize"
)

// TimestampLayout is the fixed format shared by record metadata and archive
// suffixes.
const TimestampLayout = "2006-01-02 15:04:05"

// WorkbookToRecords is a command that parses the record sheet of a located
// workbook into a normalized RecordSet.
type WorkbookToRecords struct {
	cor.BaseCommand
	sheetName string            // The sheet holding tabular records (e.g., "Sheet1").
	location  *time.Location    // The fixed timezone for the invocation timestamp.
	opts      normalize.Options // The normalization rules.
	now       func() time.Time  // The clock, replaceable in tests.
}

// NewWorkbookToRecords is the constructor for the WorkbookToRecords command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - sheetName: The name of the sheet holding tabular records.
//   - location: The timezone timestamps are formatted in.
//   - opts: The normalization rules.
func NewWorkbookToRecords(name string, sheetName string, location *time.Location, opts normalize.Options) *WorkbookToRecords {
	return &WorkbookToRecords{
		BaseCommand: *cor.NewBaseCommand(name),
		sheetName:   sheetName,
		location:    location,
		opts:        opts,
		now:         time.Now,
	}
}

// SetClock replaces the command's clock. Tests use this to pin the
// invocation timestamp.
func (c *WorkbookToRecords) SetClock(now func() time.Time) {
	c.now = now
}

// Execute parses and normalizes the record sheet.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution, with the
//     located *model.WorkbookObject in the chain input.
func (c *WorkbookToRecords) Execute(context cor.Context) {
	workbook := context.Get(c.GetInputParam()).(*model.WorkbookObject)

	f, err := excelize.OpenReader(bytes.NewReader(workbook.Content))
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &ParseError{Sheet: c.sheetName, Err: fmt.Errorf("failed to open workbook %s: %w", workbook.Name, err)})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("failed to close workbook: %v\n", err)
		}
	}()

	rows, err := f.GetRows(c.sheetName)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &ParseError{Sheet: c.sheetName, Err: err})
		return
	}
	if len(rows) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &ParseError{Sheet: c.sheetName, Err: fmt.Errorf("sheet is empty")})
		return
	}

	// One clock reading serves the whole invocation: both the record
	// metadata and, later, the image archive suffixes.
	timestamp := c.now().In(c.location).Format(TimestampLayout)
	context.Add(GetTimestampParameterName(), timestamp)

	identifier, _ := context.Get(GetIdentifierParameterName()).(string)

	recordSet, err := normalize.Sheet(rows[0], rows[1:], identifier, timestamp, c.opts)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &ParseError{Sheet: c.sheetName, Err: err})
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	log.Printf("normalized %d records from sheet %q of %s", len(recordSet.Records), c.sheetName, workbook.Name)
	context.Add(c.GetOutputParam(), recordSet)
}
