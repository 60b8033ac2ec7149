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
// persistence stage of the sync pipeline: appending the normalized records to
// the destination table.
//
// This command is the gate between the two sinks. Its output is a typed
// CommitReceipt, and the image stages declare the receipt as their input, so
// the ordering guarantee (rows committed strictly before any image work) is
// carried by the data flow itself rather than by implicit sequencing. On
// failure no receipt is produced and the chain stops.
package commands

import (
	"log"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/cloud"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/cor"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/model"
)

// RecordsToBigQuery is a command that appends a RecordSet to the destination
// table and emits the commit receipt that unlocks the image pipeline.
type RecordsToBigQuery struct {
	cor.BaseCommand
	sink cloud.RecordSink // The append-only destination table capability.
}

// NewRecordsToBigQuery is the constructor for the RecordsToBigQuery command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - sink: The RecordSink for the pre-provisioned destination table.
func NewRecordsToBigQuery(name string, sink cloud.RecordSink) *RecordsToBigQuery {
	return &RecordsToBigQuery{BaseCommand: *cor.NewBaseCommand(name), sink: sink}
}

// Execute streams the record set into the destination table.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution, with the
//     normalized *model.RecordSet in the chain input.
func (c *RecordsToBigQuery) Execute(context cor.Context) {
	recordSet := context.Get(c.GetInputParam()).(*model.RecordSet)

	if err := c.sink.Append(context.GetContext(), recordSet.Savers()); err != nil {
		log.Printf("failed to append records for %q: %v\n", recordSet.Identifier, err)
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &LoadError{Table: c.sink.TableSpec(), Err: err})
		return
	}

	receipt := &model.CommitReceipt{
		InvocationID: uuid.NewString(),
		Table:        c.sink.TableSpec(),
		RowCount:     len(recordSet.Records),
		Timestamp:    recordSet.Timestamp,
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	log.Printf("appended %d records to %s (invocation %s)", receipt.RowCount, receipt.Table, receipt.InvocationID)

	context.Add(GetReceiptParameterName(), receipt)
	context.Add(c.GetOutputParam(), receipt)
}
