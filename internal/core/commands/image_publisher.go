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
// final stage of the sync pipeline: publishing each extracted image to its
// canonical container path.
//
// Logic Flow, per image, in strict order:
//  1. If an object already exists at the canonical path, copy it to the
//     timestamped archive path, then delete the original. The archive copy
//     must land before the canonical path is cleared; a crash between the
//     two steps loses nothing.
//  2. Upload the new PNG at the canonical path.
//
// Images are independent of each other. A failure on one is recorded in the
// publish report and the loop moves on; the rows are already committed, so
// image trouble degrades the invocation to success-with-warnings rather than
// failing it.
package commands

import (
	"log"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/cloud"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/cor"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/model"
)

// ImagePublisher is a command that archives and overwrites the canonical
// container object for each extracted sheet image.
type ImagePublisher struct {
	cor.BaseCommand
	store         cloud.ObjectStore // The container images are published to.
	datasetPrefix string            // The path prefix archive objects live under.
}

// NewImagePublisher is the constructor for the ImagePublisher command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - store: The ObjectStore capability for the container.
//   - datasetPrefix: The path prefix for archive objects.
func NewImagePublisher(name string, store cloud.ObjectStore, datasetPrefix string) *ImagePublisher {
	return &ImagePublisher{BaseCommand: *cor.NewBaseCommand(name), store: store, datasetPrefix: datasetPrefix}
}

// Execute publishes every extracted image and emits the publish report.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution, with the
//     []*model.SheetImage slice in the chain input and the invocation
//     timestamp available under its named key.
func (c *ImagePublisher) Execute(context cor.Context) {
	images := context.Get(c.GetInputParam()).([]*model.SheetImage)
	timestamp, _ := context.Get(GetTimestampParameterName()).(string)

	report := model.NewPublishReport()
	for _, img := range images {
		archivedTo, err := c.publish(context, img, timestamp)
		if err != nil {
			log.Printf("failed to publish image for sheet %q to %s: %v\n", img.Sheet, img.TargetPath, err)
			c.GetErrorCounter().Add(context.GetContext(), 1)
			report.AddFailure(img, err)
			continue
		}
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		report.AddSuccess(img, archivedTo)
	}

	log.Printf("published %d images, archived %d, failed %d", report.Published(), report.Archived(), report.Failed())
	context.Add(GetReportParameterName(), report)
	context.Add(c.GetOutputParam(), report)
}

// publish runs the archive-then-delete-then-upload sequence for one image.
// It returns the archive path when a previous image was displaced, or the
// empty string for a first-time publish.
func (c *ImagePublisher) publish(context cor.Context, img *model.SheetImage, timestamp string) (string, error) {
	ctx := context.GetContext()

	exists, err := c.store.Exists(ctx, img.TargetPath)
	if err != nil {
		return "", err
	}

	archivedTo := ""
	if exists {
		archivedTo = model.ArchiveImagePath(c.datasetPrefix, img.Sheet, timestamp)
		if err := c.store.Copy(ctx, img.TargetPath, archivedTo); err != nil {
			return "", err
		}
		if err := c.store.Delete(ctx, img.TargetPath); err != nil {
			return "", err
		}
	}

	if err := c.store.Write(ctx, img.TargetPath, img.PNG, "image/png"); err != nil {
		return archivedTo, err
	}
	return archivedTo, nil
}
