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
// image-harvest stage of the sync pipeline: walking the data sheets of the
// workbook and pulling out the embedded raster images.
//
// Logic Flow:
//  1. Take the commit receipt from the chain input. The receipt is produced
//     only by a successful table append, so this stage structurally cannot
//     run against uncommitted rows.
//  2. Reopen the workbook bytes and iterate the sheets beyond the template's
//     leading boilerplate sheets.
//  3. Per sheet, scan picture anchors top-to-bottom, left-to-right, skipping
//     the excluded coordinates, and keep at most one image per row.
//  4. Re-encode every kept image to PNG. A cell that fails to decode is
//     logged and skipped; it never fails the sheet or the invocation.
package commands

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"sort"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/xuri/excelize/v2"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/cor"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/model"
)

// ImageExtractor is a command that harvests the embedded sheet images of a
// committed workbook into in-memory PNGs.
type ImageExtractor struct {
	cor.BaseCommand
	datasetPrefix     string          // The path prefix image objects live under (e.g., "DATASET").
	skipLeadingSheets int             // How many boilerplate sheets precede the data sheets.
	excluded          map[string]bool // Cell coordinates that never count as image-bearing.
}

// NewImageExtractor is the constructor for the ImageExtractor command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - datasetPrefix: The path prefix for published image objects.
//   - skipLeadingSheets: The count of leading sheets to ignore.
//   - excludedCoordinates: Cell names (e.g., "A1") never treated as images.
func NewImageExtractor(name string, datasetPrefix string, skipLeadingSheets int, excludedCoordinates []string) *ImageExtractor {
	excluded := make(map[string]bool, len(excludedCoordinates))
	for _, cell := range excludedCoordinates {
		excluded[cell] = true
	}
	return &ImageExtractor{
		BaseCommand:       *cor.NewBaseCommand(name),
		datasetPrefix:     datasetPrefix,
		skipLeadingSheets: skipLeadingSheets,
		excluded:          excluded,
	}
}

// Execute harvests the sheet images.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution, with the
//     *model.CommitReceipt in the chain input and the workbook available
//     under its named key.
func (c *ImageExtractor) Execute(context cor.Context) {
	// The receipt itself is unused beyond its presence; holding it is the
	// proof that the record append committed.
	_ = context.Get(c.GetInputParam()).(*model.CommitReceipt)
	workbook := context.Get(GetWorkbookParameterName()).(*model.WorkbookObject)

	// The output is never nil. Image failures degrade to warnings, so a
	// workbook that yields nothing still lets the publisher run and report.
	images := make([]*model.SheetImage, 0)

	f, err := excelize.OpenReader(bytes.NewReader(workbook.Content))
	if err != nil {
		log.Printf("failed to reopen workbook %s for images: %v\n", workbook.Name, err)
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.Add(c.GetOutputParam(), images)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("failed to close workbook: %v\n", err)
		}
	}()

	for i, sheet := range f.GetSheetList() {
		if i < c.skipLeadingSheets {
			continue
		}
		images = append(images, c.extractSheet(f, sheet)...)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	log.Printf("extracted %d images from %s", len(images), workbook.Name)
	context.Add(c.GetOutputParam(), images)
}

// extractSheet scans one sheet's picture anchors and keeps at most one image
// per row, the leftmost cell that decodes cleanly.
func (c *ImageExtractor) extractSheet(f *excelize.File, sheet string) []*model.SheetImage {
	cells, err := f.GetPictureCells(sheet)
	if err != nil {
		log.Printf("failed to list picture cells on sheet %q: %v\n", sheet, err)
		return nil
	}

	type anchor struct {
		cell string
		col  int
		row  int
	}
	anchors := make([]anchor, 0, len(cells))
	for _, cell := range cells {
		if c.excluded[cell] {
			continue
		}
		col, row, err := excelize.CellNameToCoordinates(cell)
		if err != nil {
			log.Printf("skipping unparsable picture cell %q on sheet %q: %v\n", cell, sheet, err)
			continue
		}
		anchors = append(anchors, anchor{cell: cell, col: col, row: row})
	}
	// Scan order is rows top-to-bottom, cells left-to-right, regardless of
	// the order the workbook stores the anchors in.
	sort.Slice(anchors, func(i, j int) bool {
		if anchors[i].row != anchors[j].row {
			return anchors[i].row < anchors[j].row
		}
		return anchors[i].col < anchors[j].col
	})

	var images []*model.SheetImage
	consumed := make(map[int]bool)
	for _, a := range anchors {
		if consumed[a.row] {
			continue
		}
		pictures, err := f.GetPictures(sheet, a.cell)
		if err != nil || len(pictures) == 0 {
			log.Printf("skipping cell %s on sheet %q: %v\n", a.cell, sheet, err)
			continue
		}
		data, err := encodePNG(pictures[0].File)
		if err != nil {
			log.Printf("skipping undecodable image at %s on sheet %q: %v\n", a.cell, sheet, err)
			continue
		}
		consumed[a.row] = true
		images = append(images, &model.SheetImage{
			Sheet:      sheet,
			Cell:       a.cell,
			PNG:        data,
			TargetPath: model.CanonicalImagePath(c.datasetPrefix, sheet),
		})
	}
	return images
}

// encodePNG normalizes arbitrary embedded image bytes to PNG. Bytes that are
// already PNG pass through untouched.
func encodePNG(data []byte) ([]byte, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return nil, fmt.Errorf("failed to sniff image type: %w", err)
	}
	if kind == matchers.TypePng {
		return data, nil
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", kind.Extension, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to re-encode %s image as png: %w", format, err)
	}
	return buf.Bytes(), nil
}
