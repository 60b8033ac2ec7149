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

// Package cloud contains data structures and utilities for interacting with
// Google Cloud services. This file defines the ObjectStore capability that the
// pipeline consumes (list-by-prefix, read, existence-check, copy, delete,
// overwrite-upload) and its Google Cloud Storage implementation. Commands are
// written against the interface so tests can substitute an in-memory store.
//
// Structs:
//   - GCSObjectStore: The production ObjectStore backed by a GCS bucket.
//   - GCSPubSubNotification: Maps to the JSON payload from GCS event notifications.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// ErrObjectNotFound is returned by Read when the named object does not exist
// in the container.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is the narrow object-storage capability consumed by the
// pipeline. Every operation is assumed atomic at single-object granularity.
type ObjectStore interface {
	// List returns the names of all objects under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Read downloads the full content of the named object.
	Read(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether an object is present at the given name.
	Exists(ctx context.Context, name string) (bool, error)

	// Copy duplicates the object at src to dst within the container.
	Copy(ctx context.Context, src string, dst string) error

	// Delete removes the named object.
	Delete(ctx context.Context, name string) error

	// Write uploads data to the named object, overwriting any existing content.
	Write(ctx context.Context, name string, data []byte, contentType string) error
}

// GCSObjectStore implements ObjectStore against a single Google Cloud Storage
// bucket, which acts as the dataset container.
type GCSObjectStore struct {
	client *storage.Client
	bucket string
}

// NewGCSObjectStore wraps a storage client and bucket name in the ObjectStore
// capability used by the pipeline commands.
func NewGCSObjectStore(client *storage.Client, bucket string) *GCSObjectStore {
	return &GCSObjectStore{client: client, bucket: bucket}
}

// Bucket returns the name of the container this store operates on.
func (s *GCSObjectStore) Bucket() string {
	return s.bucket
}

// List enumerates object names under the given prefix using the GCS object
// iterator. The listing order is whatever the service returns; callers that
// need a deterministic pick must sort.
func (s *GCSObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	names := make([]string, 0)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s*: %w", s.bucket, prefix, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

// Read downloads the full content of the named object into memory. Workbooks
// are parsed in-memory, so no temp file is written.
func (s *GCSObjectStore) Read(ctx context.Context, name string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", s.bucket, name, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to create reader for gs://%s/%s: %w", s.bucket, name, err)
	}
	// The data may still have been read completely when Close fails, so the
	// close error is logged rather than returned.
	defer func(reader *storage.Reader) {
		if err := reader.Close(); err != nil {
			log.Printf("failed to close GCS reader: %v\n", err)
		}
	}(reader)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", s.bucket, name, err)
	}
	return data, nil
}

// Exists checks object presence via an attribute fetch.
func (s *GCSObjectStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(name).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat gs://%s/%s: %w", s.bucket, name, err)
	}
	return true, nil
}

// Copy performs a server-side copy of src to dst within the container. The
// object bytes never transit the service process.
func (s *GCSObjectStore) Copy(ctx context.Context, src string, dst string) error {
	bucket := s.client.Bucket(s.bucket)
	copier := bucket.Object(dst).CopierFrom(bucket.Object(src))
	if _, err := copier.Run(ctx); err != nil {
		return fmt.Errorf("failed to copy gs://%s/%s to %s: %w", s.bucket, src, dst, err)
	}
	return nil
}

// Delete removes the named object from the container.
func (s *GCSObjectStore) Delete(ctx context.Context, name string) error {
	if err := s.client.Bucket(s.bucket).Object(name).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete gs://%s/%s: %w", s.bucket, name, err)
	}
	return nil
}

// Write streams data to the named object. Closing the writer finalizes the
// upload; an unclosed writer leaves no object behind, so the overwrite is
// single-object atomic.
func (s *GCSObjectStore) Write(ctx context.Context, name string, data []byte, contentType string) error {
	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", s.bucket, name, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", s.bucket, name, err)
	}
	return nil
}

// GCSPubSubNotification is the structure that maps to the JSON message payload
// received from a Google Cloud Storage Pub/Sub notification. When a workbook
// is finalized in the monitored container, GCS sends a message with this
// structure to the configured topic.
type GCSPubSubNotification struct {
	Kind                    string                 `json:"kind"`                    // The kind of the object, typically "storage#object".
	ID                      string                 `json:"id"`                      // The full ID of the object, including bucket and generation.
	SelfLink                string                 `json:"selfLink"`                // The URI for this object.
	Name                    string                 `json:"name"`                    // The name of the object within the bucket.
	Bucket                  string                 `json:"bucket"`                  // The name of the bucket containing the object.
	Generation              string                 `json:"generation"`              // The generation number of the object's content.
	MetaGeneration          string                 `json:"metageneration"`          // The generation number of the object's metadata.
	ContentType             string                 `json:"contentType"`             // The MIME type of the object's content.
	TimeCreated             string                 `json:"timeCreated"`             // The creation time of the object.
	Updated                 string                 `json:"updated"`                 // The last modification time of the object.
	StorageClass            string                 `json:"storageClass"`            // The storage class of the object.
	TimeStorageClassUpdated string                 `json:"timeStorageClassUpdated"` // The time the storage class was last updated.
	Size                    string                 `json:"size"`                    // The size of the object in bytes.
	MD5Hash                 string                 `json:"md5Hash"`                 // The MD5 hash of the object's content.
	MediaLink               string                 `json:"mediaLink"`               // A link to download the object's content.
	MetaData                map[string]interface{} `json:"metadata"`                // User-provided metadata, if any.
	Crc32c                  string                 `json:"crc32c"`                  // The CRC32C checksum of the object's content.
	ETag                    string                 `json:"etag"`                    // The HTTP ETag of the object.
}
