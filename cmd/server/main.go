// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// *****************************************************************************************************//
// Package main is the entry point for the dataset sync server.
//
// This application sets up and runs a web server using the Gin framework. It
// provides a REST API for synchronizing a caller's uploaded workbook into the
// destination table and the image container, for reading committed records
// back, and for generating signed URLs for published dataset images. The
// server is instrumented with OpenTelemetry for logging, tracing, and metrics.
//
// The server also manages a background Pub/Sub listener that runs the same
// synchronization pipeline when a new workbook lands in the storage bucket.
//
// Functions:
//   - main: The main entry point. It sets up the server, configures routes,
//     initializes services, and handles graceful shutdown.
//   - DatasetRouter: Sets up the API routes for dataset synchronization,
//     record lookups, signed image URLs, and table statistics.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/commands"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/cor"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/model"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/telemetry"
)

// main is the primary entry point for the application. It orchestrates the
// setup of logging, telemetry, configuration, cloud services, the web server,
// API routes, and background listeners, and handles graceful shutdown on
// interrupt.
func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	// The root context for the application; cancelling it stops the
	// listeners and releases the clients.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()

	// Trace every incoming request.
	r.Use(otelgin.Middleware("dataset-sync-server"))

	// Permissive CORS, suitable for development.
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		DatasetRouter(apiV1)
	}

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// Give active requests 5 seconds to complete.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// DatasetRouter sets up the API routes for dataset-related actions.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the dataset routes will be added,
//     nesting them under a common path prefix (e.g., "/api/v1").
//
// This function defines the following endpoints:
//   - POST /datasets/sync: Runs the full synchronization pipeline for the
//     caller identified by the 'email' query parameter.
//   - GET /datasets/:id: Returns the committed records for one dataset.
//   - GET /datasets/:id/image: Generates a time-limited, signed URL for the
//     dataset's canonical published image.
//   - GET /stats: Returns aggregates over the destination table.
func DatasetRouter(r *gin.RouterGroup) {
	datasets := r.Group("/datasets")
	{
		// Handler for POST /datasets/sync?email=<identifier>
		datasets.POST("/sync", func(c *gin.Context) {
			email := c.Query("email")

			// Each invocation gets a fresh chain context; the workflow and
			// its commands hold no per-request state.
			chainCtx := cor.NewBaseContext()
			chainCtx.SetContext(c.Request.Context())
			chainCtx.Add(cor.CtxIn, email)

			state.syncWorkflow.Execute(chainCtx)

			if chainCtx.HasErrors() {
				for _, err := range chainCtx.GetErrors() {
					var notFound *commands.NotFoundError
					if errors.As(err, &notFound) {
						c.String(http.StatusNotFound, "No file found for user %s", email)
						return
					}
					var load *commands.LoadError
					if errors.As(err, &load) {
						log.Printf("record load failed for %q: %v\n", email, err)
						c.String(http.StatusInternalServerError, "Database upload failed.")
						return
					}
				}
				// Anything else is an unexpected pipeline failure.
				for name, err := range chainCtx.GetErrors() {
					log.Printf("sync failed at %s for %q: %v\n", name, email, err)
				}
				c.Status(http.StatusInternalServerError)
				return
			}

			receipt := chainCtx.Get(commands.GetReceiptParameterName()).(*model.CommitReceipt)
			report := chainCtx.Get(commands.GetReportParameterName()).(*model.PublishReport)

			// Image trouble after the commit downgrades the response body,
			// not the status code; the rows are already in the table.
			c.JSON(http.StatusOK, gin.H{
				"msg":             "success",
				"invocation_id":   receipt.InvocationID,
				"rows":            receipt.RowCount,
				"images":          report.Published(),
				"images_archived": report.Archived(),
				"images_failed":   report.Failed(),
				"failures":        report.Failures(),
			})
		})

		// Handler for GET /datasets/:id
		datasets.GET("/:id", func(c *gin.Context) {
			id := c.Param("id")
			rows, err := state.datasetService.Records(c, id)
			if err != nil {
				log.Printf("failed to query records for %q: %v\n", id, err)
				c.Status(http.StatusInternalServerError)
				return
			}
			if len(rows) == 0 {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, rows)
		})

		// Handler for GET /datasets/:id/image
		// Provides a secure, time-limited URL for the dataset's canonical
		// image in the container.
		datasets.GET("/:id/image", func(c *gin.Context) {
			id := c.Param("id")
			signedURL, err := state.datasetService.SignedImageURL(c, id, 15*time.Minute)
			if err != nil {
				log.Printf("Error generating signed URL: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate image URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})
	}

	// Handler for GET /stats
	r.GET("/stats", func(c *gin.Context) {
		stats, err := state.datasetService.Stats(c)
		if err != nil {
			log.Printf("failed to query table stats: %v\n", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, stats)
	})
}
