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
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poiesic/taxonify/ai"
	"github.com/poiesic/taxonify/core"
	"google.golang.org/genai"
)

// Provider implements ai.Provider backed by Vertex AI through the genai
// client. One genai client is shared by the embedder and the media model.
type Provider struct {
	client    *genai.Client
	embedder  *Embedder
	describer *MediaModel
}

// NewProvider creates a Vertex-backed provider.
//
// Returns ai.Provider to enforce abstraction.
func NewProvider(ctx context.Context, config *ai.Config) (ai.Provider, error) {
	return newProvider(ctx, config)
}

func newProvider(ctx context.Context, config *ai.Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Project,
		Location: config.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	provider := &Provider{
		client: client,
		embedder: &Embedder{
			client: client,
			model:  config.EmbeddingModel,
			logger: slog.Default().With("component", "vertex-embedder"),
		},
		describer: &MediaModel{
			client: client,
			model:  config.GenerativeModel,
			logger: slog.Default().With("component", "vertex-media-model"),
		},
	}
	slog.Info("vertex provider initialized", "project", config.Project, "location", config.Location)
	return provider, nil
}

// TextEmbedder returns the embedding service.
func (p *Provider) TextEmbedder() ai.TextEmbedder {
	return p.embedder
}

// MediaModel returns the media description service.
func (p *Provider) MediaModel() ai.MediaModel {
	return p.describer
}

// Close releases resources held by the provider.
// The genai client holds no connection state that needs explicit teardown.
func (p *Provider) Close() error {
	return nil
}

// translateError maps provider rate-limit responses onto
// core.ErrResourceExhausted so retry policies can recognize them.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", core.ErrResourceExhausted, err)
	}
	return err
}
