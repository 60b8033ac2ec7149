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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements the
// dataset synchronization workflow: one caller identifier in, committed table
// rows and refreshed container images out.
package workflow

import (
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/cloud"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/commands"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/cor"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/normalize"
)

// logger emits through the OpenTelemetry bridge so workflow-level entries
// carry the active trace context.
var logger = otelslog.NewLogger("github.com/jaycherian/gcp-go-dataset-sync/internal/core/workflow")

// DatasetSyncWorkflow orchestrates one full synchronization for a single
// caller identifier. It's structured as a Chain of Responsibility (cor.Chain)
// that locates the caller's source workbook in the container, normalizes and
// commits its tabular rows, and then republishes the embedded sheet images.
//
// The workflow runs to completion within one invocation. The table append is
// the hard gate in the middle: image work only starts once the append has
// produced its commit receipt, and image failures after that point downgrade
// the result to success-with-warnings rather than failing it.
type DatasetSyncWorkflow struct {
	cor.BaseCommand
	config  *cloud.Config
	store   cloud.ObjectStore
	sink    cloud.RecordSink
	records *commands.WorkbookToRecords
	chain   cor.Chain // The underlying chain of commands to be executed.
}

// Execute runs the entire sync workflow by invoking the underlying chain.
// The caller identifier is expected in the chain input of the context.
//
// Inputs:
//   - context: The chain of responsibility context for this execution.
func (w *DatasetSyncWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
	if context.HasErrors() {
		logger.WarnContext(context.GetContext(), "dataset sync finished with errors", "workflow", w.GetName())
		return
	}
	logger.InfoContext(context.GetContext(), "dataset sync finished", "workflow", w.GetName())
}

// IsExecutable accepts any context with a live Go context. The identifier
// input may legitimately be empty; the locator turns that into a not-found
// outcome instead of a precondition failure.
func (w *DatasetSyncWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// SetClock pins the workflow's invocation clock. Tests use this to make the
// archive timestamps deterministic.
func (w *DatasetSyncWorkflow) SetClock(now func() time.Time) {
	w.records.SetClock(now)
}

// initializeChain builds the sequence of commands that make up this workflow.
// Each command is an atomic unit of work whose output feeds the next command.
// This method is called by the constructor.
func (w *DatasetSyncWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: List the current-workbook prefix, pick the object matching the
	// caller identifier, and download it. A miss ends the chain with a
	// typed not-found error.
	out.AddCommand(commands.NewWorkbookLocator(
		"locate-workbook",
		w.store,
		w.config.Storage.Container,
		w.config.Storage.CurrentPrefix))

	// Step 2: Parse the record sheet, apply the column edits and character
	// repairs, inject the metadata fields, and stamp the invocation
	// timestamp that the archive paths reuse.
	out.AddCommand(w.records)

	// Step 3: Append the normalized rows to the destination table. Success
	// mints the commit receipt; failure stops the chain here so no image
	// ever references uncommitted rows.
	out.AddCommand(commands.NewRecordsToBigQuery("write-to-bigquery", w.sink))

	// Step 4: Reopen the workbook and harvest the embedded sheet images,
	// normalized to PNG. Undecodable cells are skipped, not fatal.
	out.AddCommand(commands.NewImageExtractor(
		"extract-sheet-images",
		w.config.Storage.DatasetPrefix,
		w.config.Ingest.SkipLeadingSheets,
		w.config.Ingest.ExcludedCoordinates))

	// Step 5: For each image, archive whatever currently holds its canonical
	// path, then upload the replacement. Per-image failures land in the
	// publish report.
	out.AddCommand(commands.NewImagePublisher(
		"publish-sheet-images",
		w.store,
		w.config.Storage.DatasetPrefix))

	w.chain = out
}

// NewDatasetSyncWorkflow is the constructor for the DatasetSyncWorkflow. It
// resolves the configured timezone, assembles the normalization rules, and
// initializes the command chain.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: A struct containing initialized clients for GCP services.
//
// Returns:
//   - A pointer to a newly created and fully initialized DatasetSyncWorkflow.
func NewDatasetSyncWorkflow(config *cloud.Config, serviceClients *cloud.ServiceClients) *DatasetSyncWorkflow {
	// Resolve the fixed timezone all record and archive timestamps use.
	location, err := time.LoadLocation(config.Ingest.Timezone)
	if err != nil {
		panic(err) // The app cannot run with an unresolvable timezone.
	}

	opts := normalize.Options{
		DropColumns:      config.Ingest.DropColumns,
		IdentifierColumn: config.Ingest.IdentifierColumn,
		Container:        config.Storage.Container,
		DatasetPrefix:    config.Storage.DatasetPrefix,
		Repairs:          normalize.DefaultRepairTable().Merge(config.Ingest.Repairs),
	}

	pipeline := &DatasetSyncWorkflow{
		BaseCommand: *cor.NewBaseCommand("dataset-sync-pipeline"),
		config:      config,
		store:       serviceClients.ObjectStore,
		sink:        serviceClients.RecordSink,
		records:     commands.NewWorkbookToRecords("normalize-records", config.Ingest.SheetName, location, opts),
	}
	pipeline.initializeChain()
	return pipeline
}

// DatasetSyncTriggerWorkflow adapts the sync workflow to the event-driven
// path: it reads a GCS upload notification from Pub/Sub, recovers the caller
// identifier from the uploaded object name, and runs the same sync chain the
// HTTP surface uses.
type DatasetSyncTriggerWorkflow struct {
	cor.BaseCommand
	chain cor.Chain
}

// Execute runs the trigger workflow by invoking the underlying chain.
//
// Inputs:
//   - context: The chain of responsibility context, with the raw Pub/Sub
//     message data string in the chain input.
func (w *DatasetSyncTriggerWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// NewDatasetSyncTriggerWorkflow is the constructor for the trigger workflow.
// It prefixes the shared sync pipeline with the notification reader.
//
// Inputs:
//   - config: The application's overall configuration.
//   - sync: The shared dataset sync workflow to run after the reader.
//
// Returns:
//   - A pointer to a newly created and fully initialized trigger workflow.
func NewDatasetSyncTriggerWorkflow(config *cloud.Config, sync *DatasetSyncWorkflow) *DatasetSyncTriggerWorkflow {
	out := cor.NewBaseChain("dataset-sync-trigger-pipeline")
	out.AddCommand(commands.NewSyncTriggerReader("read-upload-notification", config.Storage.CurrentPrefix))
	out.AddCommand(sync)

	pipeline := &DatasetSyncTriggerWorkflow{
		BaseCommand: *cor.NewBaseCommand("dataset-sync-trigger-pipeline"),
		chain:       out,
	}
	return pipeline
}
