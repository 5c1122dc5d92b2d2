// Copyright 2026 Chalkpath Labs
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

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
)

// Element serializers shared by the entry serializer.
var (
	vectorMUS   = ord.NewSliceSer[float32](raw.Float32)
	metadataMUS = ord.NewMapSer[string, string](ord.String, ord.String)
)

// ChunkEntryMUS serializes ChunkEntry values in MUS format.
var ChunkEntryMUS = chunkEntrySer{}

type chunkEntrySer struct{}

var _ mus.Serializer[ChunkEntry] = chunkEntrySer{}

func (chunkEntrySer) Marshal(e ChunkEntry, buf []byte) (n int) {
	n = ord.String.Marshal(e.ID, buf)
	n += ord.String.Marshal(e.Content, buf[n:])
	n += vectorMUS.Marshal(e.Vector, buf[n:])
	n += metadataMUS.Marshal(e.Metadata, buf[n:])
	return
}

func (chunkEntrySer) Unmarshal(buf []byte) (e ChunkEntry, n int, err error) {
	var n1 int
	e.ID, n, err = ord.String.Unmarshal(buf)
	if err != nil {
		return
	}
	e.Content, n1, err = ord.String.Unmarshal(buf[n:])
	n += n1
	if err != nil {
		return
	}
	e.Vector, n1, err = vectorMUS.Unmarshal(buf[n:])
	n += n1
	if err != nil {
		return
	}
	e.Metadata, n1, err = metadataMUS.Unmarshal(buf[n:])
	n += n1
	return
}

func (chunkEntrySer) Size(e ChunkEntry) (size int) {
	size = ord.String.Size(e.ID)
	size += ord.String.Size(e.Content)
	size += vectorMUS.Size(e.Vector)
	size += metadataMUS.Size(e.Metadata)
	return
}

func (chunkEntrySer) Skip(buf []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(buf)
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(buf[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = vectorMUS.Skip(buf[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = metadataMUS.Skip(buf[n:])
	n += n1
	return
}

// MarshalChunkEntry serializes a ChunkEntry to bytes.
func MarshalChunkEntry(e *ChunkEntry) []byte {
	buf := make([]byte, ChunkEntryMUS.Size(*e))
	ChunkEntryMUS.Marshal(*e, buf)
	return buf
}

// UnmarshalChunkEntry deserializes a ChunkEntry from bytes.
func UnmarshalChunkEntry(data []byte) (*ChunkEntry, error) {
	entry, _, err := ChunkEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &entry, nil
}
