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

// Package services contains the business logic for interacting with data
// sources. This file holds the BigQuery SQL text used by the services.
package services

// QryRecordStats aggregates the destination table: total appended rows and
// the number of distinct dataset identifiers they cover. Parameter one is the
// fully qualified table name.
const QryRecordStats = `
SELECT
  COUNT(*) AS record_count,
  COUNT(DISTINCT DATASET_ID) AS dataset_count,
  COUNT(DISTINCT Created_by) AS contributor_count
FROM ` + "`%s`"

// QryDatasetRecords returns the appended rows for one dataset identifier,
// newest first. Parameter one is the fully qualified table name; the
// identifier is bound as a query parameter.
const QryDatasetRecords = `
SELECT *
FROM ` + "`%s`" + `
WHERE DATASET_ID = @id
ORDER BY Last_modified DESC
LIMIT 100`
