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
// This file holds the image-pipeline objects: the extracted sheet image, the
// archive entry created before an overwrite, and the per-invocation publish
// report. Image failures never abort the invocation; they are collected into
// the report and surfaced in the response body instead of being swallowed
// into logs alone.
package model

// SheetImage is one embedded raster image lifted out of a workbook sheet,
// re-encoded to PNG and bound for its canonical storage path. It is transient:
// held only for the duration of one publish.
type SheetImage struct {
	Sheet      string // The owning sheet name.
	Cell       string // The cell coordinate the image was anchored at (e.g., "B4").
	PNG        []byte // The re-encoded PNG bytes.
	TargetPath string // The canonical storage path (e.g., "DATASET/Q3/Q3.png").
}

// ArchiveEntry records a retained, timestamped copy of a previously-current
// image. Entries accumulate monotonically; nothing in this system ever prunes
// them.
type ArchiveEntry struct {
	Source      string // The canonical path that was about to be overwritten.
	ArchivePath string // Where the previous content was copied to.
}

// PublishResult is the per-image outcome inside a PublishReport.
type PublishResult struct {
	Sheet      string `json:"sheet"`                 // The sheet the image came from.
	Cell       string `json:"cell"`                  // The source cell coordinate.
	TargetPath string `json:"target_path"`           // The canonical path the image was published to.
	ArchivedTo string `json:"archived_to,omitempty"` // The archive path, when a prior image was displaced.
	Error      string `json:"error,omitempty"`       // The failure reason, when the publish did not complete.
}

// PublishReport aggregates the per-image outcomes of one invocation. The
// invocation-level result is success-with-warnings: image failures appear
// here and in logs, never as a non-success response status.
type PublishReport struct {
	Results []PublishResult `json:"results,omitempty"` // Per-image outcomes in publish order.
}

// NewPublishReport creates an empty report. The results slice is initialized
// so an invocation with no images still serializes as an empty list.
func NewPublishReport() *PublishReport {
	return &PublishReport{Results: make([]PublishResult, 0)}
}

// AddSuccess records a completed publish, with the archive path when an
// existing image was displaced.
func (p *PublishReport) AddSuccess(img *SheetImage, archivedTo string) {
	p.Results = append(p.Results, PublishResult{
		Sheet:      img.Sheet,
		Cell:       img.Cell,
		TargetPath: img.TargetPath,
		ArchivedTo: archivedTo,
	})
}

// AddFailure records a failed publish. The error is flattened to text because
// the report is part of the JSON response body.
func (p *PublishReport) AddFailure(img *SheetImage, err error) {
	p.Results = append(p.Results, PublishResult{
		Sheet:      img.Sheet,
		Cell:       img.Cell,
		TargetPath: img.TargetPath,
		Error:      err.Error(),
	})
}

// Published counts the images that reached their canonical path.
func (p *PublishReport) Published() int {
	n := 0
	for _, r := range p.Results {
		if r.Error == "" {
			n++
		}
	}
	return n
}

// Archived counts the prior images displaced into the archive.
func (p *PublishReport) Archived() int {
	n := 0
	for _, r := range p.Results {
		if r.Error == "" && r.ArchivedTo != "" {
			n++
		}
	}
	return n
}

// Failed counts the images that could not be published.
func (p *PublishReport) Failed() int {
	return len(p.Results) - p.Published()
}

// Failures returns only the failed outcomes, for response bodies that list
// warnings without repeating the successes.
func (p *PublishReport) Failures() []PublishResult {
	out := make([]PublishResult, 0)
	for _, r := range p.Results {
		if r.Error != "" {
			out = append(out, r)
		}
	}
	return out
}
