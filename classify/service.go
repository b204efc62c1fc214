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


package classify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/taxonify/core"
	"github.com/poiesic/taxonify/embedding"
	"github.com/poiesic/taxonify/vectorsearch"
)

// Describer produces text descriptions for media URIs.
type Describer interface {
	Describe(ctx context.Context, uris []string) ([]embedding.Description, error)
}

// Embedder computes embeddings for keyed texts.
type Embedder interface {
	Embed(ctx context.Context, items []embedding.Item) (map[string][]float32, error)
}

// NeighborFinder queries the deployed index for nearest categories.
type NeighborFinder interface {
	FindNeighbors(ctx context.Context, vectors [][]float32, neighborCount int) ([][]vectorsearch.Neighbor, error)
}

// Resolver classifies new text and media against the deployed taxonomy
// index. Media is described first, then all texts and media descriptions
// are embedded in a single call and queried together.
type Resolver struct {
	describer     Describer
	embedder      Embedder
	finder        NeighborFinder
	neighborCount int
	logger        *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithNeighborCount sets how many categories each classification returns.
// Default is vectorsearch.DefaultNumNeighbors.
func WithNeighborCount(count int) Option {
	return func(r *Resolver) {
		if count > 0 {
			r.neighborCount = count
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a classification resolver.
func NewResolver(describer Describer, embedder Embedder, finder NeighborFinder, opts ...Option) (*Resolver, error) {
	if describer == nil {
		return nil, ErrDescriberRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if finder == nil {
		return nil, ErrFinderRequired
	}

	r := &Resolver{
		describer:     describer,
		embedder:      embedder,
		finder:        finder,
		neighborCount: vectorsearch.DefaultNumNeighbors,
		logger:        slog.Default().With("component", "classify-resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Classify embeds the given texts and media and returns the nearest
// taxonomy categories for each, one result per input. Media URIs are
// validated against the supported-extension allow-list before any
// backend call; one bad extension fails the whole call. Embeddings are
// echoed back on the results only when includeEmbeddings is set.
func (r *Resolver) Classify(ctx context.Context, texts, media []string, includeEmbeddings bool) ([]core.ClassifyResult, error) {
	for _, uri := range media {
		if !core.HasValidMediaExtension(uri) {
			return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedMediaType, uri)
		}
	}

	if len(texts)+len(media) == 0 {
		return []core.ClassifyResult{}, nil
	}
	r.logger.Info("classifying inputs", "texts", len(texts), "media", len(media))

	descriptions, err := r.describeMedia(ctx, media)
	if err != nil {
		return nil, err
	}

	// Texts embed as themselves; media embeds as its description, keyed
	// by URI. Keys keep input order, texts first.
	keys := make([]string, 0, len(texts)+len(media))
	items := make([]embedding.Item, 0, len(texts)+len(media))
	for _, text := range texts {
		keys = append(keys, text)
		items = append(items, embedding.Item{Key: text, Text: text})
	}
	for _, uri := range media {
		keys = append(keys, uri)
		items = append(items, embedding.Item{Key: uri, Text: descriptions[uri]})
	}

	vectors, err := r.embedder.Embed(ctx, items)
	if err != nil {
		return nil, err
	}

	queries := make([][]float32, len(keys))
	for i, key := range keys {
		queries[i] = vectors[key]
	}
	neighbors, err := r.finder.FindNeighbors(ctx, queries, r.neighborCount)
	if err != nil {
		return nil, err
	}
	if len(neighbors) != len(keys) {
		return nil, fmt.Errorf("%w: got %d neighbor lists for %d queries", ErrNeighborMismatch, len(neighbors), len(keys))
	}

	results := make([]core.ClassifyResult, len(keys))
	for i, key := range keys {
		results[i] = r.buildResult(key, descriptions, queries[i], neighbors[i], includeEmbeddings)
	}
	return results, nil
}

// describeMedia fans the media URIs out to the describer and returns the
// descriptions keyed by URI.
func (r *Resolver) describeMedia(ctx context.Context, media []string) (map[string]string, error) {
	if len(media) == 0 {
		return map[string]string{}, nil
	}

	described, err := r.describer.Describe(ctx, media)
	if err != nil {
		return nil, err
	}
	descriptions := make(map[string]string, len(described))
	for _, d := range described {
		descriptions[d.URI] = d.Text
	}
	return descriptions, nil
}

// buildResult tags one classification by whether its key is a media path.
func (r *Resolver) buildResult(key string, descriptions map[string]string, vector []float32, neighbors []vectorsearch.Neighbor, includeEmbeddings bool) core.ClassifyResult {
	categories := make([]core.CategoryMatch, len(neighbors))
	for i, neighbor := range neighbors {
		categories[i] = core.CategoryMatch{Name: neighbor.ID, Similarity: neighbor.Distance}
	}

	result := core.ClassifyResult{Categories: categories}
	if core.HasValidMediaExtension(key) {
		result.MediaURI = key
		result.MediaDescription = descriptions[key]
	} else {
		result.Text = key
	}
	if includeEmbeddings {
		result.Embedding = vector
	}
	return result
}
