// Copyright 2026 Hearthlight Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ingest implements the document ingestion pipeline.
//
// Ingestion for one document is sequential: the document is validated and
// persisted first, then chunked, optionally contextualized, embedded in
// fixed-size batches, and finally the chunks are persisted. Embedding
// batches run one after another to bound memory use and pressure on the
// embedding endpoint. Multiple documents may be ingested concurrently by
// the caller.
package ingest
