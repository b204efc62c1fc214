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


package vectorsearch

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/taxonify/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory Backend for publisher tests. It is safe for
// concurrent use so tests can run publish and query paths in parallel.
type fakeBackend struct {
	mu        sync.Mutex
	indexes   []Index
	endpoints []Endpoint

	createIndexCalls    int
	createEndpointCalls int
	deletedEndpoints    []string
	deployedSpecs       []DeploymentSpec
	neighborQueries     [][][]float32
	neighbors           []Neighbor
}

func (f *fakeBackend) ListIndexes(ctx context.Context) ([]Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.indexes), nil
}

func (f *fakeBackend) CreateIndex(ctx context.Context, spec IndexSpec) (Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createIndexCalls++
	index := Index{Name: "indexes/" + spec.DisplayName, DisplayName: spec.DisplayName}
	f.indexes = append(f.indexes, index)
	return index, nil
}

func (f *fakeBackend) ListEndpoints(ctx context.Context) ([]Endpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.endpoints), nil
}

func (f *fakeBackend) CreateEndpoint(ctx context.Context, displayName, network string) (Endpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createEndpointCalls++
	endpoint := Endpoint{Name: "endpoints/" + displayName, DisplayName: displayName}
	f.endpoints = append(f.endpoints, endpoint)
	return endpoint, nil
}

func (f *fakeBackend) DeleteEndpoint(ctx context.Context, name string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedEndpoints = append(f.deletedEndpoints, name)
	remaining := make([]Endpoint, 0, len(f.endpoints))
	for _, endpoint := range f.endpoints {
		if endpoint.Name != name {
			remaining = append(remaining, endpoint)
		}
	}
	f.endpoints = remaining
	return nil
}

func (f *fakeBackend) DeployIndex(ctx context.Context, endpointName string, spec DeploymentSpec) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deployedSpecs = append(f.deployedSpecs, spec)
	return nil
}

func (f *fakeBackend) FindNeighbors(ctx context.Context, endpointName, deployedID string, vectors [][]float32, neighborCount int) ([][]Neighbor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.neighborQueries = append(f.neighborQueries, vectors)
	out := make([][]Neighbor, len(vectors))
	for i := range out {
		out[i] = f.neighbors
	}
	return out, nil
}

func TestPublisher_FindOrCreateIndex_Idempotent(t *testing.T) {
	backend := &fakeBackend{}
	publisher, err := NewPublisher(context.Background(), backend, "gs://bucket", "network")
	require.NoError(t, err)

	first, err := publisher.FindOrCreateIndex(context.Background(), DefaultIndexDisplayName)
	require.NoError(t, err)
	second, err := publisher.FindOrCreateIndex(context.Background(), DefaultIndexDisplayName)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.createIndexCalls)
}

func TestPublisher_FindOrCreateEndpoint_Idempotent(t *testing.T) {
	backend := &fakeBackend{}
	publisher, err := NewPublisher(context.Background(), backend, "gs://bucket", "network")
	require.NoError(t, err)

	first, err := publisher.FindOrCreateEndpoint(context.Background(), DefaultEndpointDisplayName)
	require.NoError(t, err)
	second, err := publisher.FindOrCreateEndpoint(context.Background(), DefaultEndpointDisplayName)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.createEndpointCalls)
}

func TestPublisher_Deploy_TimeDerivedID(t *testing.T) {
	backend := &fakeBackend{}
	publisher, err := NewPublisher(context.Background(), backend, "gs://bucket", "network")
	require.NoError(t, err)

	index := Index{Name: "indexes/embedding_index", DisplayName: DefaultIndexDisplayName}
	endpoint := Endpoint{Name: "endpoints/e", DisplayName: DefaultEndpointDisplayName}

	deployedID, err := publisher.Deploy(context.Background(), index, endpoint, DefaultDeployedDisplayName)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(deployedID, DefaultDeployedDisplayName+"_"))
	require.Len(t, backend.deployedSpecs, 1)
	spec := backend.deployedSpecs[0]
	assert.Equal(t, deployedID, spec.ID)
	assert.Equal(t, index.Name, spec.IndexName)
	assert.Equal(t, "e2-standard-2", spec.MachineType)
	assert.EqualValues(t, 1, spec.MinReplicaCount)
	assert.EqualValues(t, 10, spec.MaxReplicaCount)
}

func TestPublisher_TeardownAllEndpoints(t *testing.T) {
	backend := &fakeBackend{
		endpoints: []Endpoint{
			{Name: "endpoints/a", DisplayName: DefaultEndpointDisplayName, Deployments: []Deployment{
				{ID: "d1", DisplayName: DefaultDeployedDisplayName, CreateTime: time.Now()},
			}},
			{Name: "endpoints/b", DisplayName: "stray"},
		},
	}
	publisher, err := NewPublisher(context.Background(), backend, "gs://bucket", "network")
	require.NoError(t, err)

	err = publisher.TeardownAllEndpoints(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"endpoints/a", "endpoints/b"}, backend.deletedEndpoints)

	// Cached endpoint state is gone, so queries now report not found.
	_, err = publisher.FindNeighbors(context.Background(), [][]float32{{0.1}}, 10)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPublisher_FindNeighbors_NoEndpoint(t *testing.T) {
	publisher, err := NewPublisher(context.Background(), &fakeBackend{}, "gs://bucket", "network")
	require.NoError(t, err)

	_, err = publisher.FindNeighbors(context.Background(), [][]float32{{0.1}}, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPublisher_FindNeighbors_EndpointWithoutDeployment(t *testing.T) {
	backend := &fakeBackend{
		endpoints: []Endpoint{
			{Name: "endpoints/a", DisplayName: DefaultEndpointDisplayName, Deployments: []Deployment{
				{ID: "other", DisplayName: "some_other_deployment", CreateTime: time.Now()},
			}},
		},
	}
	publisher, err := NewPublisher(context.Background(), backend, "gs://bucket", "network")
	require.NoError(t, err)

	_, err = publisher.FindNeighbors(context.Background(), [][]float32{{0.1}}, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, backend.neighborQueries)
}

func TestPublisher_FindNeighbors_UsesMostRecentDeployment(t *testing.T) {
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	backend := &fakeBackend{
		endpoints: []Endpoint{
			{Name: "endpoints/a", DisplayName: DefaultEndpointDisplayName, Deployments: []Deployment{
				{ID: "deploy_old", DisplayName: DefaultDeployedDisplayName, CreateTime: old},
				{ID: "deploy_new", DisplayName: DefaultDeployedDisplayName, CreateTime: recent},
			}},
		},
		neighbors: []Neighbor{{ID: "cat1", Distance: 0.9}},
	}
	publisher, err := NewPublisher(context.Background(), backend, "gs://bucket", "network")
	require.NoError(t, err)

	results, err := publisher.FindNeighbors(context.Background(), [][]float32{{0.1}, {0.2}}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "cat1", results[0][0].ID)
}

func TestLatestDeploymentID(t *testing.T) {
	t1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	deployments := []Deployment{
		{ID: "a", DisplayName: DefaultDeployedDisplayName, CreateTime: t1},
		{ID: "b", DisplayName: "unrelated", CreateTime: t2.Add(time.Hour)},
		{ID: "c", DisplayName: DefaultDeployedDisplayName, CreateTime: t2},
	}

	assert.Equal(t, "c", latestDeploymentID(deployments, DefaultDeployedDisplayName))
	assert.Equal(t, "", latestDeploymentID(deployments, "missing"))
	assert.Equal(t, "", latestDeploymentID(nil, DefaultDeployedDisplayName))
}

func TestPublisher_FindNeighbors_ConcurrentWithRepublish(t *testing.T) {
	backend := &fakeBackend{
		endpoints: []Endpoint{
			{Name: "endpoints/a", DisplayName: DefaultEndpointDisplayName, Deployments: []Deployment{
				{ID: "d1", DisplayName: DefaultDeployedDisplayName, CreateTime: time.Now()},
			}},
		},
		neighbors: []Neighbor{{ID: "cat1", Distance: 0.9}},
	}
	publisher, err := NewPublisher(context.Background(), backend, "gs://bucket", "network")
	require.NoError(t, err)

	ctx := context.Background()
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			// A torn-down endpoint is a legitimate miss mid-republish.
			if _, err := publisher.FindNeighbors(ctx, [][]float32{{0.1}}, 10); err != nil {
				assert.True(t, errors.Is(err, core.ErrNotFound), "unexpected error: %v", err)
			}
		}
	}()

	for i := 0; i < 50; i++ {
		require.NoError(t, publisher.TeardownAllEndpoints(ctx))
		index, err := publisher.FindOrCreateIndex(ctx, DefaultIndexDisplayName)
		require.NoError(t, err)
		endpoint, err := publisher.FindOrCreateEndpoint(ctx, DefaultEndpointDisplayName)
		require.NoError(t, err)
		_, err = publisher.Deploy(ctx, index, endpoint, DefaultDeployedDisplayName)
		require.NoError(t, err)
	}
	close(done)
	wg.Wait()
}

func TestNewPublisher_RequiresBackend(t *testing.T) {
	_, err := NewPublisher(context.Background(), nil, "gs://bucket", "network")
	assert.ErrorIs(t, err, ErrBackendRequired)
}
