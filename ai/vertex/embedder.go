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


package vertex

import (
	"context"
	"log/slog"

	"google.golang.org/genai"
)

// embeddingDimensions matches the vector index geometry.
const embeddingDimensions = 768

// Embedder implements ai.TextEmbedder using a Vertex text embedding model.
type Embedder struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// EmbedTexts generates embeddings for a batch of texts in one model call.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings", "count", len(texts))

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	response, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr[int32](embeddingDimensions),
	})
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, translateError(err)
	}

	vectors := make([][]float32, len(response.Embeddings))
	for i, embedding := range response.Embeddings {
		vectors[i] = embedding.Values
	}
	return vectors, nil
}
