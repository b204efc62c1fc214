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
	"testing"

	"github.com/poiesic/taxonify/core"
	"github.com/poiesic/taxonify/embedding"
	"github.com/poiesic/taxonify/vectorsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDescriber returns canned descriptions and counts calls.
type fakeDescriber struct {
	calls int
	uris  [][]string
}

func (f *fakeDescriber) Describe(ctx context.Context, uris []string) ([]embedding.Description, error) {
	f.calls++
	f.uris = append(f.uris, uris)
	out := make([]embedding.Description, len(uris))
	for i, uri := range uris {
		out[i] = embedding.Description{URI: uri, Text: "described " + uri}
	}
	return out, nil
}

// fakeEmbedder returns one distinct vector per item and counts calls.
type fakeEmbedder struct {
	calls int
	items [][]embedding.Item
}

func (f *fakeEmbedder) Embed(ctx context.Context, items []embedding.Item) (map[string][]float32, error) {
	f.calls++
	f.items = append(f.items, items)
	out := make(map[string][]float32, len(items))
	for i, item := range items {
		out[item.Key] = []float32{float32(i) + 1}
	}
	return out, nil
}

// fakeFinder returns one fixed neighbor list per query vector.
type fakeFinder struct {
	calls     int
	vectors   [][][]float32
	neighbors []vectorsearch.Neighbor
}

func (f *fakeFinder) FindNeighbors(ctx context.Context, vectors [][]float32, neighborCount int) ([][]vectorsearch.Neighbor, error) {
	f.calls++
	f.vectors = append(f.vectors, vectors)
	out := make([][]vectorsearch.Neighbor, len(vectors))
	for i := range out {
		out[i] = f.neighbors
	}
	return out, nil
}

func setupResolver(t *testing.T) (*Resolver, *fakeDescriber, *fakeEmbedder, *fakeFinder) {
	t.Helper()

	describer := &fakeDescriber{}
	embedder := &fakeEmbedder{}
	finder := &fakeFinder{neighbors: []vectorsearch.Neighbor{
		{ID: "cat1", Distance: 0.9},
		{ID: "cat2", Distance: 0.7},
	}}

	resolver, err := NewResolver(describer, embedder, finder)
	require.NoError(t, err)
	return resolver, describer, embedder, finder
}

func TestResolver_Classify_TextAndMedia(t *testing.T) {
	resolver, describer, embedder, finder := setupResolver(t)

	results, err := resolver.Classify(context.Background(),
		[]string{"hello"}, []string{"a.jpeg", "b.mp4"}, false)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Text first, then media, matching input order.
	text := results[0]
	assert.Equal(t, "hello", text.Text)
	assert.Empty(t, text.MediaURI)
	assert.Empty(t, text.MediaDescription)

	for i, uri := range []string{"a.jpeg", "b.mp4"} {
		media := results[i+1]
		assert.Equal(t, uri, media.MediaURI, uri)
		assert.Empty(t, media.Text, uri)
		assert.Equal(t, "described "+uri, media.MediaDescription, uri)
	}

	// Every result carries the ranked categories in backend order.
	for _, result := range results {
		require.Len(t, result.Categories, 2)
		assert.Equal(t, "cat1", result.Categories[0].Name)
		assert.InDelta(t, 0.9, result.Categories[0].Similarity, 1e-9)
		assert.Nil(t, result.Embedding)
	}

	assert.Equal(t, 1, describer.calls)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, 1, finder.calls)

	// Media embeds as its description, keyed by URI.
	items := embedder.items[0]
	require.Len(t, items, 3)
	assert.Equal(t, embedding.Item{Key: "hello", Text: "hello"}, items[0])
	assert.Equal(t, embedding.Item{Key: "a.jpeg", Text: "described a.jpeg"}, items[1])
	assert.Equal(t, embedding.Item{Key: "b.mp4", Text: "described b.mp4"}, items[2])
}

func TestResolver_Classify_EmptyInputsNoBackendCalls(t *testing.T) {
	resolver, describer, embedder, finder := setupResolver(t)

	results, err := resolver.Classify(context.Background(), nil, nil, false)
	require.NoError(t, err)

	assert.Empty(t, results)
	assert.Equal(t, 0, describer.calls)
	assert.Equal(t, 0, embedder.calls)
	assert.Equal(t, 0, finder.calls)
}

func TestResolver_Classify_InvalidExtensionRejectedUpFront(t *testing.T) {
	resolver, describer, embedder, finder := setupResolver(t)

	_, err := resolver.Classify(context.Background(), []string{"hello"}, []string{"x.xyz"}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedMediaType)

	assert.Equal(t, 0, describer.calls)
	assert.Equal(t, 0, embedder.calls)
	assert.Equal(t, 0, finder.calls)
}

func TestResolver_Classify_TextOnlySkipsDescriber(t *testing.T) {
	resolver, describer, embedder, finder := setupResolver(t)

	results, err := resolver.Classify(context.Background(), []string{"just text"}, nil, false)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, 0, describer.calls)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, 1, finder.calls)
}

func TestResolver_Classify_IncludeEmbeddings(t *testing.T) {
	resolver, _, _, _ := setupResolver(t)

	results, err := resolver.Classify(context.Background(), []string{"hello"}, nil, true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []float32{1}, results[0].Embedding)
}

func TestResolver_Classify_QueryOrderMatchesKeys(t *testing.T) {
	resolver, _, _, finder := setupResolver(t)

	_, err := resolver.Classify(context.Background(), []string{"t1", "t2"}, []string{"a.png"}, false)
	require.NoError(t, err)

	// One query vector per key: t1, t2, then a.png, in that order.
	require.Len(t, finder.vectors, 1)
	assert.Equal(t, [][]float32{{1}, {2}, {3}}, finder.vectors[0])
}

func TestNewResolver_RequiresCollaborators(t *testing.T) {
	describer := &fakeDescriber{}
	embedder := &fakeEmbedder{}
	finder := &fakeFinder{}

	_, err := NewResolver(nil, embedder, finder)
	assert.ErrorIs(t, err, ErrDescriberRequired)
	_, err = NewResolver(describer, nil, finder)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
	_, err = NewResolver(describer, embedder, nil)
	assert.ErrorIs(t, err, ErrFinderRequired)
}
