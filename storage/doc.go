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


// Package storage defines the persistence abstractions for documents and
// chunks, plus the binary serialization used by the BadgerDB backend.
//
// Repositories are defined here as interfaces and implemented in
// storage/badger. Both search entry points (SemanticSearch, TextSearch)
// take the caller's access filter and apply it at query time against the
// access fields denormalized onto every chunk, so row-level security holds
// without a document join.
//
// Serialization uses MUS format, composed by hand from the mus-go primitive
// serializers (varint, ord, raw). Field order is the struct declaration
// order; changing it is a breaking format change.
package storage
