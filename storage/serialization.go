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


package storage

import (
	"fmt"
	"time"

	"github.com/hearthlight/quiver/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS field serializers composed by hand. Timestamps are stored as Unix
// microseconds.
var (
	vectorSer  = ord.NewSliceSer[float32](raw.Float32)
	stringsSer = ord.NewSliceSer[string](ord.String)
	metaSer    = ord.NewMapSer[string, string](ord.String, ord.String)
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

func sizeAccess(a core.AccessMeta) int {
	return ord.String.Size(a.OwnerId) +
		ord.String.Size(a.OwnerLabel) +
		ord.Bool.Size(a.IsPublic) +
		stringsSer.Size(a.SharedWith) +
		stringsSer.Size(a.GroupIds)
}

func marshalAccess(a core.AccessMeta, buf []byte) int {
	n := ord.String.Marshal(a.OwnerId, buf)
	n += ord.String.Marshal(a.OwnerLabel, buf[n:])
	n += ord.Bool.Marshal(a.IsPublic, buf[n:])
	n += stringsSer.Marshal(a.SharedWith, buf[n:])
	n += stringsSer.Marshal(a.GroupIds, buf[n:])
	return n
}

func unmarshalAccess(data []byte) (a core.AccessMeta, n int, err error) {
	var m int
	if a.OwnerId, n, err = ord.String.Unmarshal(data); err != nil {
		return
	}
	if a.OwnerLabel, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return
	}
	n += m
	if a.IsPublic, m, err = ord.Bool.Unmarshal(data[n:]); err != nil {
		return
	}
	n += m
	if a.SharedWith, m, err = stringsSer.Unmarshal(data[n:]); err != nil {
		return
	}
	n += m
	if a.GroupIds, m, err = stringsSer.Unmarshal(data[n:]); err != nil {
		return
	}
	n += m
	return
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	size := varint.Uint64.Size(uint64(doc.Id)) +
		ord.String.Size(doc.Title) +
		ord.String.Size(doc.Source) +
		ord.String.Size(doc.Content) +
		metaSer.Size(doc.Metadata) +
		sizeAccess(doc.Access) +
		varint.Int64.Size(doc.CreatedAt.UnixMicro()) +
		varint.Int64.Size(doc.UpdatedAt.UnixMicro())

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(doc.Id), buf)
	n += ord.String.Marshal(doc.Title, buf[n:])
	n += ord.String.Marshal(doc.Source, buf[n:])
	n += ord.String.Marshal(doc.Content, buf[n:])
	n += metaSer.Marshal(doc.Metadata, buf[n:])
	n += marshalAccess(doc.Access, buf[n:])
	n += varint.Int64.Marshal(doc.CreatedAt.UnixMicro(), buf[n:])
	varint.Int64.Marshal(doc.UpdatedAt.UnixMicro(), buf[n:])
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc := &core.Document{}
	var n, m int
	var err error
	var id uint64
	var created, updated int64

	if id, n, err = varint.Uint64.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	doc.Id = core.ID(id)
	if doc.Title, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	if doc.Source, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	if doc.Content, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	if doc.Metadata, m, err = metaSer.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	if doc.Access, m, err = unmarshalAccess(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	if created, m, err = varint.Int64.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	if updated, _, err = varint.Int64.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	doc.CreatedAt = time.UnixMicro(created).UTC()
	doc.UpdatedAt = time.UnixMicro(updated).UTC()
	return doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	size := varint.Uint64.Size(uint64(chunk.Id)) +
		varint.Uint64.Size(uint64(chunk.DocumentId)) +
		varint.Int.Size(chunk.Index) +
		ord.String.Size(chunk.Content) +
		vectorSer.Size(chunk.Vector) +
		varint.Int.Size(chunk.StartChar) +
		varint.Int.Size(chunk.EndChar) +
		metaSer.Size(chunk.Metadata) +
		sizeAccess(chunk.Access)

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(chunk.Id), buf)
	n += varint.Uint64.Marshal(uint64(chunk.DocumentId), buf[n:])
	n += varint.Int.Marshal(chunk.Index, buf[n:])
	n += ord.String.Marshal(chunk.Content, buf[n:])
	n += vectorSer.Marshal(chunk.Vector, buf[n:])
	n += varint.Int.Marshal(chunk.StartChar, buf[n:])
	n += varint.Int.Marshal(chunk.EndChar, buf[n:])
	n += metaSer.Marshal(chunk.Metadata, buf[n:])
	marshalAccess(chunk.Access, buf[n:])
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk := &core.Chunk{}
	var n, m int
	var err error
	var id, docId uint64

	if id, n, err = varint.Uint64.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	chunk.Id = core.ID(id)
	if docId, m, err = varint.Uint64.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	chunk.DocumentId = core.ID(docId)
	if chunk.Index, m, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	if chunk.Content, m, err = ord.String.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	if chunk.Vector, m, err = vectorSer.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	if chunk.StartChar, m, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	if chunk.EndChar, m, err = varint.Int.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	if chunk.Metadata, m, err = metaSer.Unmarshal(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	n += m
	if chunk.Access, _, err = unmarshalAccess(data[n:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return chunk, nil
}
