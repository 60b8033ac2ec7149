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

// Package commands_test exercises the pipeline commands one at a time against
// the in-memory capability fakes and real XLSX fixtures.
package commands_test

import (
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/commands"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/cor"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/model"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/normalize"
	test "github.com/jaycherian/gcp-go-dataset-sync/internal/testutil"
)

func newChainContext(input interface{}) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	if input != nil {
		ctx.Add(cor.CtxIn, input)
	}
	return ctx
}

func TestSelectObjectName(t *testing.T) {
	names := []string{
		"DATASET/Current_alice@example.com.xlsx",
		"DATASET/Current_bob@example.com.xlsx",
		"DATASET/Current_alice@example.com (1).xlsx",
	}

	// Substring match, lexicographically last name wins.
	assert.Equal(t,
		"DATASET/Current_alice@example.com.xlsx",
		commands.SelectObjectName(names, "alice@example.com"))
	assert.Equal(t,
		"DATASET/Current_bob@example.com.xlsx",
		commands.SelectObjectName(names, "bob@example.com"))

	// No match and empty identifier both select nothing. An empty identifier
	// must not degrade into matching every object.
	assert.Equal(t, "", commands.SelectObjectName(names, "carol@example.com"))
	assert.Equal(t, "", commands.SelectObjectName(names, ""))
	assert.Equal(t, "", commands.SelectObjectName(nil, "alice@example.com"))
}

func TestWorkbookLocatorDownloadsSelectedObject(t *testing.T) {
	store := test.NewFakeObjectStore()
	store.Objects["DATASET/Current_alice@example.com.xlsx"] = []byte("workbook-bytes")
	store.Objects["DATASET/Current_bob@example.com.xlsx"] = []byte("other")

	locator := commands.NewWorkbookLocator("locate", store, "container", "DATASET/Current")
	ctx := newChainContext("alice@example.com")
	locator.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	workbook := ctx.Get(cor.CtxOut).(*model.WorkbookObject)
	assert.Equal(t, "DATASET/Current_alice@example.com.xlsx", workbook.Name)
	assert.Equal(t, []byte("workbook-bytes"), workbook.Content)
	assert.Equal(t, "alice@example.com", ctx.Get(commands.GetIdentifierParameterName()))
}

func TestWorkbookLocatorMissReportsNotFound(t *testing.T) {
	store := test.NewFakeObjectStore()
	store.Objects["DATASET/Current_bob@example.com.xlsx"] = []byte("other")

	locator := commands.NewWorkbookLocator("locate", store, "container", "DATASET/Current")
	ctx := newChainContext("alice@example.com")

	// An empty or unmatched identifier is a legitimate input, so the command
	// must still consider itself executable and turn the miss into a typed
	// error.
	assert.True(t, locator.IsExecutable(ctx))
	locator.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	var notFound *commands.NotFoundError
	assert.True(t, errors.As(ctx.GetErrors()["locate"], &notFound))
	assert.Equal(t, "alice@example.com", notFound.Identifier)
}

func TestSyncTriggerReaderParsesNotification(t *testing.T) {
	reader := commands.NewSyncTriggerReader("read-trigger", "DATASET/Current")
	ctx := newChainContext(test.GetTestUploadMessageText())
	reader.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, "alice@example.com", ctx.Get(cor.CtxOut))
}

func TestIdentifierFromObjectName(t *testing.T) {
	id, err := commands.IdentifierFromObjectName("DATASET/Current_alice@example.com.xlsx", "DATASET/Current")
	assert.NoError(t, err)
	assert.Equal(t, "alice@example.com", id)

	_, err = commands.IdentifierFromObjectName("DATASET/Q3/Q3.png", "DATASET/Current")
	assert.Error(t, err)

	_, err = commands.IdentifierFromObjectName("DATASET/Current_.xlsx", "DATASET/Current")
	assert.Error(t, err)
}

func recordsCommand() *commands.WorkbookToRecords {
	opts := normalize.Options{
		DropColumns:      []string{"Unused_Column"},
		IdentifierColumn: "OldName",
		Container:        "container",
		DatasetPrefix:    "DATASET",
		Repairs:          normalize.DefaultRepairTable(),
	}
	cmd := commands.NewWorkbookToRecords("normalize", "Sheet1", time.UTC, opts)
	cmd.SetClock(func() time.Time {
		return time.Date(2024, 10, 11, 8, 4, 8, 0, time.UTC)
	})
	return cmd
}

func TestWorkbookToRecordsParsesAndStampsTimestamp(t *testing.T) {
	content, err := test.BuildWorkbook(test.WorkbookSpec{
		SheetName: "Sheet1",
		Header:    []string{"OldName", "Unused_Column", "Owner"},
		Rows: [][]string{
			{"DS-001", "noise", "team-a"},
			{"DS-002", "noise", "team-b"},
		},
	})
	require.NoError(t, err)

	ctx := newChainContext(&model.WorkbookObject{Bucket: "container", Name: "wb.xlsx", Content: content})
	ctx.Add(commands.GetIdentifierParameterName(), "alice@example.com")
	recordsCommand().Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, "2024-10-11 08:04:08", ctx.Get(commands.GetTimestampParameterName()))

	rs := ctx.Get(cor.CtxOut).(*model.RecordSet)
	assert.Len(t, rs.Records, 2)
	assert.Equal(t, "DS-001", rs.Records[0].Get(model.FieldDatasetID))
	assert.Equal(t, "alice@example.com", rs.Records[0].Get(model.FieldCreatedBy))
}

func TestWorkbookToRecordsMissingSheetIsFatal(t *testing.T) {
	content, err := test.BuildWorkbook(test.WorkbookSpec{
		SheetName: "SomethingElse",
		Header:    []string{"OldName"},
		Rows:      [][]string{{"DS-001"}},
	})
	require.NoError(t, err)

	ctx := newChainContext(&model.WorkbookObject{Content: content})
	recordsCommand().Execute(ctx)

	assert.True(t, ctx.HasErrors())
	var parseErr *commands.ParseError
	assert.True(t, errors.As(ctx.GetErrors()["normalize"], &parseErr))
}

func TestRecordsToBigQueryMintsReceipt(t *testing.T) {
	sink := test.NewFakeRecordSink()
	cmd := commands.NewRecordsToBigQuery("load", sink)

	rs := &model.RecordSet{
		Identifier: "alice@example.com",
		Timestamp:  "2024-10-11 08:04:08",
		Columns:    []string{model.FieldDatasetID},
		Records: []*model.Record{
			{Columns: []string{model.FieldDatasetID}, Values: map[string]string{model.FieldDatasetID: "DS-001"}},
			{Columns: []string{model.FieldDatasetID}, Values: map[string]string{model.FieldDatasetID: "DS-002"}},
		},
	}
	ctx := newChainContext(rs)
	cmd.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, 2, sink.Rows())

	receipt := ctx.Get(commands.GetReceiptParameterName()).(*model.CommitReceipt)
	assert.Equal(t, 2, receipt.RowCount)
	assert.Equal(t, "test_ds.records", receipt.Table)
	assert.Equal(t, "2024-10-11 08:04:08", receipt.Timestamp)
	assert.NotEmpty(t, receipt.InvocationID)
}

func TestRecordsToBigQueryFailureIsTypedAndMintsNoReceipt(t *testing.T) {
	sink := test.NewFakeRecordSink()
	sink.Err = errors.New("connection reset")
	cmd := commands.NewRecordsToBigQuery("load", sink)

	rs := &model.RecordSet{Records: []*model.Record{}}
	ctx := newChainContext(rs)
	cmd.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	var loadErr *commands.LoadError
	assert.True(t, errors.As(ctx.GetErrors()["load"], &loadErr))
	assert.Equal(t, "test_ds.records", loadErr.Table)
	assert.Nil(t, ctx.Get(commands.GetReceiptParameterName()))
}

func extractionContext(t *testing.T, spec test.WorkbookSpec) cor.Context {
	t.Helper()
	content, err := test.BuildWorkbook(spec)
	require.NoError(t, err)

	ctx := newChainContext(&model.CommitReceipt{InvocationID: "inv-1"})
	ctx.Add(commands.GetWorkbookParameterName(), &model.WorkbookObject{Name: "wb.xlsx", Content: content})
	ctx.Add(commands.GetTimestampParameterName(), "2024-10-11 08:04:08")
	return ctx
}

func TestImageExtractorSkipsLeadingSheetsAndExcludedCells(t *testing.T) {
	png := test.TinyPNG(color.White)
	spec := test.WorkbookSpec{
		SheetName:     "Sheet1",
		Header:        []string{"OldName"},
		Rows:          [][]string{{"DS-001"}},
		LeadingSheets: []string{"Info"},
		ImageOrder:    []string{"Q3"},
		Images: map[string]map[string][]byte{
			// A1 is excluded; B2 is the real image anchor.
			"Q3": {"A1": png, "B2": png},
		},
	}

	extractor := commands.NewImageExtractor("extract", "DATASET", 2, []string{"A1"})
	ctx := extractionContext(t, spec)
	extractor.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	images := ctx.Get(cor.CtxOut).([]*model.SheetImage)
	assert.Len(t, images, 1)
	assert.Equal(t, "Q3", images[0].Sheet)
	assert.Equal(t, "B2", images[0].Cell)
	assert.Equal(t, "DATASET/Q3/Q3.png", images[0].TargetPath)
}

func TestImageExtractorKeepsOneImagePerRow(t *testing.T) {
	png := test.TinyPNG(color.White)
	spec := test.WorkbookSpec{
		SheetName:  "Sheet1",
		Header:     []string{"OldName"},
		Rows:       [][]string{{"DS-001"}},
		ImageOrder: []string{"Q3"},
		Images: map[string]map[string][]byte{
			// Two anchors on row 2, one on row 5: two images total, and the
			// leftmost anchor wins within the shared row.
			"Q3": {"B2": png, "D2": png, "B5": png},
		},
	}

	extractor := commands.NewImageExtractor("extract", "DATASET", 1, nil)
	ctx := extractionContext(t, spec)
	extractor.Execute(ctx)

	images := ctx.Get(cor.CtxOut).([]*model.SheetImage)
	require.Len(t, images, 2)
	assert.Equal(t, "B2", images[0].Cell)
	assert.Equal(t, "B5", images[1].Cell)
}

func TestImageExtractorReencodesToPNG(t *testing.T) {
	spec := test.WorkbookSpec{
		SheetName:  "Sheet1",
		Header:     []string{"OldName"},
		Rows:       [][]string{{"DS-001"}},
		ImageOrder: []string{"Q3"},
		Images: map[string]map[string][]byte{
			"Q3": {"B2": test.TinyJPEG(color.White)},
		},
	}

	extractor := commands.NewImageExtractor("extract", "DATASET", 1, nil)
	ctx := extractionContext(t, spec)
	extractor.Execute(ctx)

	images := ctx.Get(cor.CtxOut).([]*model.SheetImage)
	require.Len(t, images, 1)
	// PNG signature.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, images[0].PNG[:4])
}

func TestImageExtractorEmitsEmptySliceWithoutImages(t *testing.T) {
	spec := test.WorkbookSpec{
		SheetName: "Sheet1",
		Header:    []string{"OldName"},
		Rows:      [][]string{{"DS-001"}},
	}

	extractor := commands.NewImageExtractor("extract", "DATASET", 1, nil)
	ctx := extractionContext(t, spec)
	extractor.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	images := ctx.Get(cor.CtxOut).([]*model.SheetImage)
	assert.NotNil(t, images)
	assert.Empty(t, images)
}

func publisherContext(images []*model.SheetImage) cor.Context {
	ctx := newChainContext(images)
	ctx.Add(commands.GetTimestampParameterName(), "2024-10-11 08:04:08")
	return ctx
}

func TestImagePublisherFirstPublishSkipsArchive(t *testing.T) {
	store := test.NewFakeObjectStore()
	publisher := commands.NewImagePublisher("publish", store, "DATASET")

	img := &model.SheetImage{Sheet: "Q3", Cell: "B2", PNG: []byte("new"), TargetPath: "DATASET/Q3/Q3.png"}
	ctx := publisherContext([]*model.SheetImage{img})
	publisher.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, []byte("new"), store.Objects["DATASET/Q3/Q3.png"])
	assert.Equal(t, []string{"exists DATASET/Q3/Q3.png", "write DATASET/Q3/Q3.png"}, store.Ops)

	report := ctx.Get(commands.GetReportParameterName()).(*model.PublishReport)
	assert.Equal(t, 1, report.Published())
	assert.Equal(t, 0, report.Archived())
}

func TestImagePublisherArchivesBeforeOverwrite(t *testing.T) {
	store := test.NewFakeObjectStore()
	store.Objects["DATASET/Q3/Q3.png"] = []byte("old")
	publisher := commands.NewImagePublisher("publish", store, "DATASET")

	img := &model.SheetImage{Sheet: "Q3", Cell: "B2", PNG: []byte("new"), TargetPath: "DATASET/Q3/Q3.png"}
	ctx := publisherContext([]*model.SheetImage{img})
	publisher.Execute(ctx)

	assert.False(t, ctx.HasErrors())

	archivePath := "DATASET/Q3/Archive/Q3_2024-10-11 08:04:08.png"
	assert.Equal(t, []byte("old"), store.Objects[archivePath])
	assert.Equal(t, []byte("new"), store.Objects["DATASET/Q3/Q3.png"])

	// The strict per-image sequence: archive the previous content, clear the
	// canonical path, then upload the replacement.
	assert.Equal(t, []string{
		"exists DATASET/Q3/Q3.png",
		"copy DATASET/Q3/Q3.png -> " + archivePath,
		"delete DATASET/Q3/Q3.png",
		"write DATASET/Q3/Q3.png",
	}, store.Ops)

	report := ctx.Get(commands.GetReportParameterName()).(*model.PublishReport)
	assert.Equal(t, 1, report.Archived())
}

func TestImagePublisherIsolatesPerImageFailures(t *testing.T) {
	store := test.NewFakeObjectStore()
	store.FailOn("write", "DATASET/Q1/Q1.png", errors.New("quota exceeded"))
	publisher := commands.NewImagePublisher("publish", store, "DATASET")

	images := []*model.SheetImage{
		{Sheet: "Q1", Cell: "B2", PNG: []byte("one"), TargetPath: "DATASET/Q1/Q1.png"},
		{Sheet: "Q2", Cell: "B2", PNG: []byte("two"), TargetPath: "DATASET/Q2/Q2.png"},
	}
	ctx := publisherContext(images)
	publisher.Execute(ctx)

	// A failed image lands in the report, never in the chain errors; the
	// remaining images still publish.
	assert.False(t, ctx.HasErrors())
	assert.Equal(t, []byte("two"), store.Objects["DATASET/Q2/Q2.png"])
	_, published := store.Objects["DATASET/Q1/Q1.png"]
	assert.False(t, published)

	report := ctx.Get(commands.GetReportParameterName()).(*model.PublishReport)
	assert.Equal(t, 1, report.Published())
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, "Q1", report.Failures()[0].Sheet)
}
