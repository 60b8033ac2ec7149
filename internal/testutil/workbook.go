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
// application's test suite. This file builds in-memory XLSX fixtures so the
// pipeline tests exercise real workbook parsing instead of canned row data.
package test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/xuri/excelize/v2"
)

// WorkbookSpec describes a test workbook: one record sheet, optional filler
// sheets mimicking the template's leading boilerplate, and image-bearing
// sheets with raster content anchored at specific cells.
type WorkbookSpec struct {
	SheetName     string                       // The record sheet name (e.g., "Sheet1").
	Header        []string                     // The record sheet's header row.
	Rows          [][]string                   // The record sheet's data rows.
	LeadingSheets []string                     // Filler sheets inserted after the record sheet.
	Images        map[string]map[string][]byte // Image sheets: sheet name to cell to image bytes.
	ImageOrder    []string                     // Creation order for the image sheets.
}

// BuildWorkbook renders a WorkbookSpec into XLSX bytes.
func BuildWorkbook(spec WorkbookSpec) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// The default sheet becomes the record sheet.
	if spec.SheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", spec.SheetName); err != nil {
			return nil, err
		}
	}
	if err := setRow(f, spec.SheetName, 1, spec.Header); err != nil {
		return nil, err
	}
	for i, row := range spec.Rows {
		if err := setRow(f, spec.SheetName, i+2, row); err != nil {
			return nil, err
		}
	}

	for _, name := range spec.LeadingSheets {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	for _, sheet := range spec.ImageOrder {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		for cell, data := range spec.Images[sheet] {
			pic := &excelize.Picture{Extension: ".png", File: data}
			if bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
				pic.Extension = ".jpg"
			}
			if err := f.AddPictureFromBytes(sheet, cell, pic); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return f.SetSheetRow(sheet, cell, &out)
}

// TinyPNG returns a valid one-pixel PNG of the given color.
func TinyPNG(c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, c)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// TinyJPEG returns a valid one-pixel JPEG, for exercising the PNG re-encode
// path.
func TinyJPEG(c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, c)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
