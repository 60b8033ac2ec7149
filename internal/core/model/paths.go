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

package model

import "fmt"

// The derived path conventions are a fixed external contract shared with the
// workbook template and the consumers of the destination table. They must be
// reproduced exactly, so all of them live here as pure functions.

// RecordImageLink builds the Image_link value for a record: the storage path
// of the image that belongs to the record's identifier. It is a pure function
// of the container name and the identifier; it does not verify the image
// exists.
func RecordImageLink(container, datasetPrefix, id string) string {
	return fmt.Sprintf("/%s/%s/%s/%s.png", container, datasetPrefix, id, id)
}

// CanonicalImagePath builds the single current storage location of a sheet's
// image.
func CanonicalImagePath(datasetPrefix, sheet string) string {
	return fmt.Sprintf("%s/%s/%s.png", datasetPrefix, sheet, sheet)
}

// ArchiveImagePath builds the retention location a displaced image is copied
// to before its canonical path is overwritten. The timestamp is the same
// request-time value stamped on the tabular metadata, which keeps the two
// sinks traceable to one invocation.
func ArchiveImagePath(datasetPrefix, sheet, timestamp string) string {
	return fmt.Sprintf("%s/%s/Archive/%s_%s.png", datasetPrefix, sheet, sheet, timestamp)
}
