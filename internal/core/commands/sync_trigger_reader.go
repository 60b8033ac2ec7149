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
// entry command for the event-driven path: turning a GCS object notification
// into the caller identifier the sync chain starts from.
package commands

import (
	"encoding/json"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/jaycherian/gcp-go-dataset-sync/internal/cloud"
	"github.com/jaycherian/gcp-go-dataset-sync/internal/core/cor"
)

// SyncTriggerReader is a command that parses a GCS Pub/Sub notification and
// extracts the caller identifier from the uploaded workbook's object name.
type SyncTriggerReader struct {
	cor.BaseCommand
	currentPrefix string // The prefix current workbooks are uploaded under.
}

// NewSyncTriggerReader is the constructor for the SyncTriggerReader command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - currentPrefix: The object-name prefix for current workbooks
//     (e.g., "DATASET/Current").
func NewSyncTriggerReader(name string, currentPrefix string) *SyncTriggerReader {
	return &SyncTriggerReader{BaseCommand: *cor.NewBaseCommand(name), currentPrefix: currentPrefix}
}

// IdentifierFromObjectName recovers the caller identifier embedded in an
// uploaded workbook name, e.g. "DATASET/Current_alice@example.com.xlsx"
// yields "alice@example.com". It returns an error for names outside the
// upload convention so unrelated bucket events are rejected cleanly.
func IdentifierFromObjectName(objectName string, currentPrefix string) (string, error) {
	if !strings.HasPrefix(objectName, currentPrefix) {
		return "", fmt.Errorf("object %q is not under prefix %q", objectName, currentPrefix)
	}
	rest := strings.TrimPrefix(objectName, currentPrefix)
	rest = strings.TrimPrefix(rest, "_")
	identifier := strings.TrimSuffix(rest, path.Ext(rest))
	if identifier == "" {
		return "", fmt.Errorf("object %q carries no identifier", objectName)
	}
	return identifier, nil
}

// Execute parses the notification payload and emits the identifier.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution, with the
//     raw Pub/Sub message data string in the chain input.
func (c *SyncTriggerReader) Execute(context cor.Context) {
	payload := context.Get(c.GetInputParam()).(string)

	notification := &cloud.GCSPubSubNotification{}
	if err := json.Unmarshal([]byte(payload), notification); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to parse storage notification: %w", err))
		return
	}

	identifier, err := IdentifierFromObjectName(notification.Name, c.currentPrefix)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	log.Printf("storage notification for %s mapped to identifier %q", notification.Name, identifier)
	context.Add(c.GetOutputParam(), identifier)
}
