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


package core

import "errors"

// Domain validation errors
var (
	// ErrValidation is the root of the validation error class.
	// All malformed-input errors wrap it.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyContent indicates the document content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyQuery indicates an empty query string.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrEmptyOwner indicates a missing owner identity on ingestion.
	ErrEmptyOwner = errors.New("owner id cannot be empty")

	// ErrMatchCountRange indicates a match count outside the allowed 1..50 range.
	ErrMatchCountRange = errors.New("match count must be between 1 and 50")

	// ErrInvalidChunkBounds indicates chunk offsets outside the document content.
	ErrInvalidChunkBounds = errors.New("chunk bounds exceed document content")
)
