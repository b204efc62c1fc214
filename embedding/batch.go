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


package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/poiesic/taxonify/ai"
)

// MaxBatchSize is the provider's limit on texts per embedding call.
const MaxBatchSize = 200

// Item is one keyed text to embed. Keys must be unique within a call: raw
// text doubles as its own key, media items are keyed by their URI.
type Item struct {
	Key  string
	Text string
}

// BatchEmbedder converts keyed texts into embedding vectors, partitioning
// the input into sequential provider batches. It is stateless across calls
// aside from the held provider handle.
type BatchEmbedder struct {
	embedder  ai.TextEmbedder
	batchSize int
	logger    *slog.Logger
}

// BatchOption configures a BatchEmbedder.
type BatchOption func(*BatchEmbedder)

// WithBatchSize overrides the provider batch-size limit.
// Values below 1 are ignored.
func WithBatchSize(size int) BatchOption {
	return func(b *BatchEmbedder) {
		if size >= 1 {
			b.batchSize = size
		}
	}
}

// WithBatchLogger sets a custom logger. Default is slog.Default().
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchEmbedder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBatchEmbedder creates a batch embedder over a provider handle.
func NewBatchEmbedder(embedder ai.TextEmbedder, opts ...BatchOption) (*BatchEmbedder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	b := &BatchEmbedder{
		embedder:  embedder,
		batchSize: MaxBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Embed computes one embedding per item and returns them keyed by the
// items' keys. Batches are sent one at a time because batch order determines
// output alignment: batch i's vector j belongs to input item (i, j). A
// length mismatch between a request and its response is fatal.
//
// Empty input returns an empty map without any provider call.
func (b *BatchEmbedder) Embed(ctx context.Context, items []Item) (map[string][]float32, error) {
	vectors := make(map[string][]float32, len(items))
	if len(items) == 0 {
		return vectors, nil
	}

	for _, item := range items {
		if _, ok := vectors[item.Key]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, item.Key)
		}
		vectors[item.Key] = nil
	}

	numBatches := int(math.Ceil(float64(len(items)) / float64(b.batchSize)))
	for start, batchNum := 0, 1; start < len(items); start, batchNum = start+b.batchSize, batchNum+1 {
		end := min(start+b.batchSize, len(items))
		batch := items[start:end]

		texts := make([]string, len(batch))
		for i, item := range batch {
			texts[i] = item.Text
		}

		b.logger.Info("processing embedding batch",
			"batch", batchNum,
			"batches", numBatches,
			"size", len(batch),
			"percentComplete", fmt.Sprintf("%d%%", int(math.Round(float64(batchNum)/float64(numBatches)*100))),
		)

		batchVectors, err := b.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d of %d: %w", batchNum, numBatches, err)
		}
		if len(batchVectors) != len(batch) {
			return nil, fmt.Errorf("%w: sent %d texts, got %d vectors",
				ErrBatchMismatch, len(batch), len(batchVectors))
		}

		for i, item := range batch {
			vectors[item.Key] = batchVectors[i]
		}
	}

	return vectors, nil
}
