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
// typed terminal errors of the pipeline. Only these three change the
// invocation outcome; image-pipeline failures are collected into the publish
// report instead of the error map.
package commands

import "fmt"

// NotFoundError is returned when no source workbook matches the caller
// identifier. It maps to a 404-equivalent response and is never retried.
type NotFoundError struct {
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no workbook found for identifier %q", e.Identifier)
}

// ParseError is returned when the workbook is unreadable or the expected
// sheet or columns are missing in an unrecoverable way. It is fatal to the
// whole invocation.
type ParseError struct {
	Sheet string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse sheet %q: %v", e.Sheet, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadError is returned when the relational append fails. It is terminal for
// the invocation and guarantees the image pipeline never runs.
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to append records to table %q: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
