// Copyright 2025 Poiesic Systems
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
	"github.com/poiesic/sondera/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalCollection serializes a Collection to bytes.
func MarshalCollection(collection *core.Collection) []byte {
	buf := make([]byte, core.CollectionMUS.Size(*collection))
	core.CollectionMUS.Marshal(*collection, buf)
	return buf
}

// UnmarshalCollection deserializes a Collection from bytes.
func UnmarshalCollection(data []byte) (*core.Collection, error) {
	collection, _, err := core.CollectionMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// MarshalGrant serializes a Grant to bytes.
func MarshalGrant(grant *core.Grant) []byte {
	buf := make([]byte, core.GrantMUS.Size(*grant))
	core.GrantMUS.Marshal(*grant, buf)
	return buf
}

// UnmarshalGrant deserializes a Grant from bytes.
func UnmarshalGrant(data []byte) (*core.Grant, error) {
	grant, _, err := core.GrantMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// MarshalCacheEntry serializes an EmbeddingCacheEntry to bytes.
func MarshalCacheEntry(entry *core.EmbeddingCacheEntry) []byte {
	buf := make([]byte, core.EmbeddingCacheEntryMUS.Size(*entry))
	core.EmbeddingCacheEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalCacheEntry deserializes an EmbeddingCacheEntry from bytes.
func UnmarshalCacheEntry(data []byte) (*core.EmbeddingCacheEntry, error) {
	entry, _, err := core.EmbeddingCacheEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalQueryRecord serializes a QueryRecord to bytes.
func MarshalQueryRecord(record *core.QueryRecord) []byte {
	buf := make([]byte, core.QueryRecordMUS.Size(*record))
	core.QueryRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalQueryRecord deserializes a QueryRecord from bytes.
func UnmarshalQueryRecord(data []byte) (*core.QueryRecord, error) {
	record, _, err := core.QueryRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalQueryChunk serializes a QueryChunk to bytes.
func MarshalQueryChunk(qc *core.QueryChunk) []byte {
	buf := make([]byte, core.QueryChunkMUS.Size(*qc))
	core.QueryChunkMUS.Marshal(*qc, buf)
	return buf
}

// UnmarshalQueryChunk deserializes a QueryChunk from bytes.
func UnmarshalQueryChunk(data []byte) (*core.QueryChunk, error) {
	qc, _, err := core.QueryChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &qc, nil
}

// MarshalFeedback serializes a Feedback to bytes.
func MarshalFeedback(feedback *core.Feedback) []byte {
	buf := make([]byte, core.FeedbackMUS.Size(*feedback))
	core.FeedbackMUS.Marshal(*feedback, buf)
	return buf
}

// UnmarshalFeedback deserializes a Feedback from bytes.
func UnmarshalFeedback(data []byte) (*core.Feedback, error) {
	feedback, _, err := core.FeedbackMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &feedback, nil
}
