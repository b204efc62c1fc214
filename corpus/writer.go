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


// Package corpus writes taxonomy embeddings to the object store the vector
// index is built from. Records are chunked into newline-delimited JSON
// files of at most RecordsPerFile entries each.
package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/taxonify/core"
)

// RecordsPerFile is the maximum number of corpus records per file.
const RecordsPerFile = 3500

// filePrefix names the corpus files: embeddings_0.json, embeddings_1.json...
const filePrefix = "embeddings"

// Writer persists an embedded corpus to object storage.
type Writer interface {
	// WriteCorpus writes all records, chunked across files. The write fails
	// as a whole on any client-side storage error.
	WriteCorpus(ctx context.Context, records []core.CategoryEmbedding) error
}

// chunkRecords splits records into chunks of at most size entries,
// preserving order.
func chunkRecords(records []core.CategoryEmbedding, size int) [][]core.CategoryEmbedding {
	var chunks [][]core.CategoryEmbedding
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

// encodeJSONL renders a chunk as newline-delimited JSON with compact
// separators.
func encodeJSONL(records []core.CategoryEmbedding) (string, error) {
	lines := make([]string, len(records))
	for i, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return "", fmt.Errorf("failed to encode corpus record %q: %w", record.Id, err)
		}
		lines[i] = string(data)
	}
	return strings.Join(lines, "\n"), nil
}

// chunkFileName names the nth corpus file.
func chunkFileName(index int) string {
	return fmt.Sprintf("%s_%d.json", filePrefix, index)
}
