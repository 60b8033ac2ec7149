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

// Package test provides utility functions and mock data to support the
// application's test suite. This file holds the in-memory fakes for the
// ObjectStore and RecordSink capabilities. The fakes record every operation
// in order, so tests can assert the archive-then-delete-then-upload sequence
// rather than just the end state.
package test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cloud.google.com/go/bigquery"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/cloud"
)

// FakeObjectStore is an in-memory cloud.ObjectStore. Objects live in a map,
// and every mutating or reading call appends a line to Ops.
type FakeObjectStore struct {
	mu      sync.Mutex
	Objects map[string][]byte // Object name to content.
	Ops     []string          // Operation log, e.g. "copy DATASET/Q3/Q3.png -> ...".
	Fail    map[string]error  // Per-operation induced failures, keyed "verb name".
}

// NewFakeObjectStore creates an empty fake store.
func NewFakeObjectStore() *FakeObjectStore {
	return &FakeObjectStore{
		Objects: make(map[string][]byte),
		Fail:    make(map[string]error),
	}
}

// FailOn makes the next calls of the given verb ("read", "write", "copy",
// "delete", "exists") against the given object name return err.
func (f *FakeObjectStore) FailOn(verb string, name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fail[verb+" "+name] = err
}

func (f *FakeObjectStore) failure(verb string, name string) error {
	return f.Fail[verb+" "+name]
}

// List returns the object names under prefix in lexicographic order,
// matching the listing order of the real store.
func (f *FakeObjectStore) List(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, "list "+prefix)
	if err := f.failure("list", prefix); err != nil {
		return nil, err
	}
	names := make([]string, 0)
	for name := range f.Objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the content of the named object.
func (f *FakeObjectStore) Read(_ context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, "read "+name)
	if err := f.failure("read", name); err != nil {
		return nil, err
	}
	content, ok := f.Objects[name]
	if !ok {
		return nil, fmt.Errorf("read %q: %w", name, cloud.ErrObjectNotFound)
	}
	return content, nil
}

// Exists reports whether the named object is present.
func (f *FakeObjectStore) Exists(_ context.Context, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, "exists "+name)
	if err := f.failure("exists", name); err != nil {
		return false, err
	}
	_, ok := f.Objects[name]
	return ok, nil
}

// Copy duplicates src to dst, like a server-side copy.
func (f *FakeObjectStore) Copy(_ context.Context, src string, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, "copy "+src+" -> "+dst)
	if err := f.failure("copy", src); err != nil {
		return err
	}
	content, ok := f.Objects[src]
	if !ok {
		return fmt.Errorf("copy %q: %w", src, cloud.ErrObjectNotFound)
	}
	f.Objects[dst] = append([]byte(nil), content...)
	return nil
}

// Delete removes the named object.
func (f *FakeObjectStore) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, "delete "+name)
	if err := f.failure("delete", name); err != nil {
		return err
	}
	delete(f.Objects, name)
	return nil
}

// Write stores content at the named object, overwriting any previous value.
func (f *FakeObjectStore) Write(_ context.Context, name string, content []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, "write "+name)
	if err := f.failure("write", name); err != nil {
		return err
	}
	f.Objects[name] = append([]byte(nil), content...)
	return nil
}

// FakeRecordSink is an in-memory cloud.RecordSink that captures every
// appended batch.
type FakeRecordSink struct {
	mu      sync.Mutex
	Batches [][]bigquery.ValueSaver // Each Append call's rows, in call order.
	Err     error                   // When set, Append fails with this error.
}

// NewFakeRecordSink creates an empty fake sink.
func NewFakeRecordSink() *FakeRecordSink {
	return &FakeRecordSink{}
}

// Append captures the batch, or fails with the induced error.
func (f *FakeRecordSink) Append(_ context.Context, rows []bigquery.ValueSaver) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Batches = append(f.Batches, rows)
	return nil
}

// TableSpec returns a fixed table name for receipts and log lines.
func (f *FakeRecordSink) TableSpec() string {
	return "test_ds.records"
}

// Rows returns the total number of rows across all captured batches.
func (f *FakeRecordSink) Rows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.Batches {
		n += len(b)
	}
	return n
}
