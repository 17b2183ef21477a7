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

import (
	"fmt"
	"strings"
)

const (
	// MinMatchCount and MaxMatchCount bound the number of results a caller may request.
	MinMatchCount = 1
	MaxMatchCount = 50
)

// ValidateDocument validates a Document for ingestion.
//
// Validation rules:
//   - Content must not be empty
//   - Owner id must not be empty
//
// NOT validated (populated later):
//   - Id (0 is valid before the sequence assigns one)
//   - Timestamps
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrValidation)
	}

	if strings.TrimSpace(doc.Content) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyContent)
	}

	if doc.Access.OwnerId == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyOwner)
	}

	return nil
}

// ValidateChunk validates a Chunk against its parent document content length.
func ValidateChunk(chunk *Chunk, contentLen int) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrValidation)
	}

	if chunk.StartChar < 0 || chunk.EndChar > contentLen || chunk.StartChar > chunk.EndChar {
		return fmt.Errorf("%w: %w: start=%d end=%d len=%d",
			ErrValidation, ErrInvalidChunkBounds, chunk.StartChar, chunk.EndChar, contentLen)
	}

	return nil
}

// ValidateQuery validates query input.
func ValidateQuery(query string, matchCount int) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyQuery)
	}

	if matchCount < MinMatchCount || matchCount > MaxMatchCount {
		return fmt.Errorf("%w: %w: got %d", ErrValidation, ErrMatchCountRange, matchCount)
	}

	return nil
}
