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
// well-known context parameter names shared between commands. Besides the
// chain's default input/output piping, some values (the caller identifier,
// the invocation timestamp, the located workbook) are needed by more than the
// immediately following command, so they are stored under these keys.
package commands

// GetIdentifierParameterName returns the context key holding the caller
// identifier for the invocation.
func GetIdentifierParameterName() string {
	return "__IDENTIFIER__"
}

// GetWorkbookParameterName returns the context key holding the located
// *model.WorkbookObject.
func GetWorkbookParameterName() string {
	return "__WORKBOOK__"
}

// GetTimestampParameterName returns the context key holding the formatted
// invocation timestamp shared by the record metadata and the archive paths.
func GetTimestampParameterName() string {
	return "__TIMESTAMP__"
}

// GetReceiptParameterName returns the context key holding the
// *model.CommitReceipt produced by the relational load.
func GetReceiptParameterName() string {
	return "__RECEIPT__"
}

// GetReportParameterName returns the context key holding the
// *model.PublishReport produced by the image publisher.
func GetReportParameterName() string {
	return "__REPORT__"
}
