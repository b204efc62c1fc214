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


package ai

import (
	"context"

	"github.com/poiesic/taxonify/core"
)

// TextEmbedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type TextEmbedder interface {
	// EmbedTexts generates embeddings for a batch of texts in a single
	// provider call. The returned slice contains one vector per input text
	// in the same order. Callers are responsible for keeping batches within
	// the provider's batch-size limit.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// MediaModel generates textual descriptions of media content.
// Implementations must be thread-safe for concurrent use.
type MediaModel interface {
	// DescribeMedia generates a description for a single media file. The
	// kind selects the prompt template. Rate-limit failures are reported as
	// core.ErrResourceExhausted so callers can retry.
	DescribeMedia(ctx context.Context, uri string, kind core.MediaKind) (string, error)
}

// Provider aggregates the AI services for convenient initialization and
// lifecycle management. A provider is constructed once at process start and
// torn down at shutdown; its services share the underlying client.
type Provider interface {
	// TextEmbedder returns the embedding service.
	TextEmbedder() TextEmbedder

	// MediaModel returns the media description service.
	MediaModel() MediaModel

	// Close releases resources held by the provider and its services.
	Close() error
}
