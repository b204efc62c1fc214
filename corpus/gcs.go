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


package corpus

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/poiesic/taxonify/core"
)

// GCSWriter writes corpus files to a Google Cloud Storage bucket.
type GCSWriter struct {
	bucket     *storage.BucketHandle
	bucketName string
	logger     *slog.Logger
}

// NewGCSWriter creates a writer over a bucket.
//
// Returns Writer to enforce abstraction.
func NewGCSWriter(client *storage.Client, bucketName string) (Writer, error) {
	if client == nil {
		return nil, ErrStorageClientRequired
	}
	if bucketName == "" {
		return nil, ErrBucketRequired
	}
	return &GCSWriter{
		bucket:     client.Bucket(bucketName),
		bucketName: bucketName,
		logger:     slog.Default().With("component", "gcs-corpus-writer"),
	}, nil
}

// WriteCorpus writes all records to the bucket as chunked JSONL files. Any
// storage error aborts the write and names the bucket and file in progress.
func (w *GCSWriter) WriteCorpus(ctx context.Context, records []core.CategoryEmbedding) error {
	chunks := chunkRecords(records, RecordsPerFile)
	for i, chunk := range chunks {
		fileName := chunkFileName(i)
		if err := w.writeChunk(ctx, fileName, chunk); err != nil {
			w.logger.Error("could not write corpus file",
				"bucket", w.bucketName, "file", fileName, "err", err)
			return fmt.Errorf("%w: bucket %s, file %s: %v",
				ErrWriteTaxonomy, w.bucketName, fileName, err)
		}
		w.logger.Info("wrote corpus file",
			"bucket", w.bucketName, "file", fileName, "records", len(chunk))
	}
	return nil
}

func (w *GCSWriter) writeChunk(ctx context.Context, fileName string, chunk []core.CategoryEmbedding) error {
	data, err := encodeJSONL(chunk)
	if err != nil {
		return err
	}

	writer := w.bucket.Object(fileName).NewWriter(ctx)
	writer.ContentType = "application/octet-stream"
	if _, err := writer.Write([]byte(data)); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}
