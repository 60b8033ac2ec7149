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
// first stage of the sync pipeline: locating the caller's source workbook in
// the container.
//
// Logic Flow:
//  1. Take the caller identifier from the chain input.
//  2. List the container objects under the current-workbook prefix.
//  3. Keep the objects whose name contains the identifier as a substring. An
//     empty identifier never matches anything; it must not degrade into
//     "match every object".
//  4. When several objects match, the lexicographically last name wins. The
//     naming convention embeds the upload recency, so "last" is "most
//     recent", and the choice is deterministic where raw listing order would
//     not be.
//  5. Download the selected workbook as bytes and emit a WorkbookObject.
package commands

import (
	"log"
	"sort"
	"strings"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/cloud"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/cor"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/model"
)

// WorkbookLocator is a command that finds and downloads the single source
// workbook belonging to a caller identifier.
type WorkbookLocator struct {
	cor.BaseCommand
	store     cloud.ObjectStore // The container the workbooks live in.
	container string            // The container name, carried onto the WorkbookObject.
	prefix    string            // The listing prefix for current workbooks (e.g., "DATASET/Current").
}

// NewWorkbookLocator is the constructor for the WorkbookLocator command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - store: The ObjectStore capability for the container.
//   - container: The container name.
//   - prefix: The listing prefix current workbooks are stored under.
func NewWorkbookLocator(name string, store cloud.ObjectStore, container string, prefix string) *WorkbookLocator {
	return &WorkbookLocator{BaseCommand: *cor.NewBaseCommand(name), store: store, container: container, prefix: prefix}
}

// IsExecutable requires only a live Go context: the identifier input may
// legitimately be an empty string, which the default input check would treat
// as missing.
func (c *WorkbookLocator) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// SelectObjectName applies the matching rule to a listing: substring match on
// the identifier, lexicographically last name wins. It returns the empty
// string when nothing matches. Exported for direct testing because the rule
// carries the pipeline's only tie-break decision.
func SelectObjectName(names []string, identifier string) string {
	if identifier == "" {
		return ""
	}
	matches := make([]string, 0, 1)
	for _, name := range names {
		if strings.Contains(name, identifier) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[len(matches)-1]
}

// Execute lists, selects, and downloads the workbook.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution, with the
//     caller identifier in the chain input.
func (c *WorkbookLocator) Execute(context cor.Context) {
	identifier, _ := context.Get(c.GetInputParam()).(string)

	// Keep the identifier available to later stages under its own key.
	context.Add(GetIdentifierParameterName(), identifier)

	names, err := c.store.List(context.GetContext(), c.prefix)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	selected := SelectObjectName(names, identifier)
	if selected == "" {
		log.Printf("no workbook under %q matches identifier %q\n", c.prefix, identifier)
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), &NotFoundError{Identifier: identifier})
		return
	}

	content, err := c.store.Read(context.GetContext(), selected)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	log.Printf("located workbook %s (%d bytes) for identifier %q", selected, len(content), identifier)

	workbook := &model.WorkbookObject{Bucket: c.container, Name: selected, Content: content}
	// The workbook is needed again by the image extractor, well after the
	// record stages have replaced the piped value.
	context.Add(GetWorkbookParameterName(), workbook)
	context.Add(c.GetOutputParam(), workbook)
}
