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

// Package model defines the core data structures for the application. These
// objects are transient: they live in memory for the duration of one workflow
// execution and are passed between commands in the chain. Only the normalized
// records are ever persisted, and those go through the BigQuery value-saver
// in record.go.
package model

// WorkbookObject is the located source workbook: the caller-specific
// spreadsheet file downloaded from the container. It is read-only input and
// is never written back.
type WorkbookObject struct {
	Bucket  string // The name of the container bucket the workbook was read from.
	Name    string // The full object name of the workbook.
	Content []byte // The raw workbook bytes.
}
