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
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/taxonify/core"
)

// Display-name conventions. Identity of backend resources is resolved by
// display name so repeated pipeline runs are idempotent at the naming layer.
const (
	DefaultIndexDisplayName    = "embedding_index"
	DefaultEndpointDisplayName = "embedding_index_endpoint"
	DefaultDeployedDisplayName = "embedding_index_deployed"
)

// DefaultNumNeighbors is the neighbor count used when a query does not
// specify one.
const DefaultNumNeighbors = 10

// Fixed index geometry. Vectors are unit-L2 normalized so dot product
// equals cosine similarity.
const (
	indexDimensions           = 768
	approximateNeighborsCount = 10
	distanceMeasureType       = "DOT_PRODUCT_DISTANCE"
	featureNormType           = "UNIT_L2_NORM"
	shardSize                 = "SHARD_SIZE_SMALL"
)

// Fixed deployment sizing.
const (
	minReplicaCount = 1
	maxReplicaCount = 10
	machineType     = "e2-standard-2"
)

// Publisher creates, deploys, and queries nearest-neighbor indexes over the
// embedding corpus staged in the backing object store. The endpoint and
// deployed-index id resolved at construction (or recorded by Deploy) are
// cached for the life of the process. Publish operations run on a background
// goroutine while queries arrive on request goroutines, so the cache is
// guarded by a mutex.
type Publisher struct {
	backend      Backend
	contentsURI  string
	network      string
	deployedName string
	logger       *slog.Logger

	mu         sync.Mutex
	endpoint   *Endpoint
	deployedID string
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDeployedDisplayName overrides the display name used to recognize the
// active deployment. Default is DefaultDeployedDisplayName.
func WithDeployedDisplayName(name string) PublisherOption {
	return func(p *Publisher) {
		if name != "" {
			p.deployedName = name
		}
	}
}

// NewPublisher creates a publisher and resolves any existing endpoint and
// deployment by display-name convention. Finding none is a normal state for
// a process that has not published yet; it is logged, not an error.
func NewPublisher(ctx context.Context, backend Backend, contentsURI, network string, opts ...PublisherOption) (*Publisher, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	p := &Publisher{
		backend:      backend,
		contentsURI:  contentsURI,
		network:      network,
		deployedName: DefaultDeployedDisplayName,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.resolveEndpointState(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// resolveEndpointState looks up the conventional endpoint and its most
// recent matching deployment, caching both.
func (p *Publisher) resolveEndpointState(ctx context.Context) error {
	endpoints, err := p.backend.ListEndpoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to list index endpoints: %w", err)
	}
	p.logger.Info("resolved index endpoints", "count", len(endpoints))

	for _, endpoint := range endpoints {
		if endpoint.DisplayName != DefaultEndpointDisplayName {
			continue
		}
		deployedID := latestDeploymentID(endpoint.Deployments, p.deployedName)
		p.mu.Lock()
		p.endpoint = &endpoint
		p.deployedID = deployedID
		p.mu.Unlock()
		if deployedID == "" {
			p.logger.Warn("no deployed index with expected display name",
				"endpoint", endpoint.DisplayName, "deployedDisplayName", p.deployedName)
		} else {
			p.logger.Info("resolved deployed index", "deployedId", deployedID)
		}
		return nil
	}

	p.logger.Warn("no index endpoint found on initialization",
		"displayName", DefaultEndpointDisplayName)
	return nil
}

// latestDeploymentID returns the id of the most recently created deployment
// bearing the expected display name, or "" when none matches. Creation time
// descending, first match wins.
func latestDeploymentID(deployments []Deployment, displayName string) string {
	sorted := slices.Clone(deployments)
	slices.SortFunc(sorted, func(a, b Deployment) int {
		return b.CreateTime.Compare(a.CreateTime)
	})
	for _, deployment := range sorted {
		if deployment.DisplayName == displayName {
			return deployment.ID
		}
	}
	return ""
}

// FindOrCreateIndex returns the existing index with the given display name,
// or creates one over the corpus currently staged in the object store.
func (p *Publisher) FindOrCreateIndex(ctx context.Context, displayName string) (Index, error) {
	indexes, err := p.backend.ListIndexes(ctx)
	if err != nil {
		return Index{}, fmt.Errorf("failed to list indexes: %w", err)
	}
	for _, index := range indexes {
		if index.DisplayName == displayName {
			p.logger.Info("index already exists", "displayName", displayName)
			return index, nil
		}
	}

	p.logger.Info("creating index", "displayName", displayName, "contentsUri", p.contentsURI)
	index, err := p.backend.CreateIndex(ctx, IndexSpec{
		DisplayName:               displayName,
		ContentsURI:               p.contentsURI,
		Dimensions:                indexDimensions,
		ApproximateNeighborsCount: approximateNeighborsCount,
		DistanceMeasureType:       distanceMeasureType,
		FeatureNormType:           featureNormType,
		ShardSize:                 shardSize,
	})
	if err != nil {
		return Index{}, fmt.Errorf("failed to create index %q: %w", displayName, err)
	}
	return index, nil
}

// FindOrCreateEndpoint returns the existing endpoint with the given display
// name, or creates one attached to the deployment network. The result is
// cached as the publisher's active endpoint.
func (p *Publisher) FindOrCreateEndpoint(ctx context.Context, displayName string) (Endpoint, error) {
	endpoints, err := p.backend.ListEndpoints(ctx)
	if err != nil {
		return Endpoint{}, fmt.Errorf("failed to list index endpoints: %w", err)
	}
	for _, endpoint := range endpoints {
		if endpoint.DisplayName == displayName {
			p.logger.Info("index endpoint already exists", "displayName", displayName)
			p.mu.Lock()
			p.endpoint = &endpoint
			p.mu.Unlock()
			return endpoint, nil
		}
	}

	p.logger.Info("creating index endpoint", "displayName", displayName)
	endpoint, err := p.backend.CreateEndpoint(ctx, displayName, p.network)
	if err != nil {
		return Endpoint{}, fmt.Errorf("failed to create index endpoint %q: %w", displayName, err)
	}
	p.logger.Info("created index endpoint", "displayName", displayName)
	p.mu.Lock()
	p.endpoint = &endpoint
	p.mu.Unlock()
	return endpoint, nil
}

// Deploy deploys an index onto an endpoint under a time-derived unique
// deployment id and records that id as the active deployment. Deployment is
// asynchronous on the backend: deploying against an index that is still
// provisioning returns core.ErrCreationInProgress, which the caller can
// retry later. An "id already exists" conflict is propagated unchanged.
func (p *Publisher) Deploy(ctx context.Context, index Index, endpoint Endpoint, displayName string) (string, error) {
	deployedID := fmt.Sprintf("%s_%d", displayName, time.Now().UnixNano())

	p.logger.Info("deploying index to endpoint",
		"endpoint", endpoint.DisplayName, "deployedId", deployedID)
	err := p.backend.DeployIndex(ctx, endpoint.Name, DeploymentSpec{
		ID:              deployedID,
		DisplayName:     displayName,
		IndexName:       index.Name,
		MachineType:     machineType,
		MinReplicaCount: minReplicaCount,
		MaxReplicaCount: maxReplicaCount,
	})
	if err != nil {
		return "", fmt.Errorf("failed to deploy index %q to endpoint %q: %w",
			index.DisplayName, endpoint.DisplayName, err)
	}

	p.logger.Info("deployed index to endpoint", "endpoint", endpoint.DisplayName)
	p.mu.Lock()
	p.deployedID = deployedID
	p.mu.Unlock()
	return deployedID, nil
}

// TeardownAllEndpoints force-deletes every endpoint, undeploying any
// attached indexes first, and clears the cached endpoint state. Used to
// guarantee at most one live endpoint before republishing.
func (p *Publisher) TeardownAllEndpoints(ctx context.Context) error {
	endpoints, err := p.backend.ListEndpoints(ctx)
	if err != nil {
		return fmt.Errorf("failed to list index endpoints: %w", err)
	}
	for _, endpoint := range endpoints {
		p.logger.Info("deleting index endpoint", "displayName", endpoint.DisplayName)
		if err := p.backend.DeleteEndpoint(ctx, endpoint.Name, true); err != nil {
			return fmt.Errorf("failed to delete index endpoint %q: %w", endpoint.DisplayName, err)
		}
		p.logger.Info("deleted index endpoint", "displayName", endpoint.DisplayName)
	}
	p.mu.Lock()
	p.endpoint = nil
	p.deployedID = ""
	p.mu.Unlock()
	return nil
}

// FindNeighbors returns the neighborCount nearest categories for each query
// vector, one ranked list per vector in the backend's own ordering. Both an
// unresolved endpoint and an endpoint without a matching deployment report
// core.ErrNotFound; classification against an unpublished taxonomy is an
// expected outcome, not a backend fault.
func (p *Publisher) FindNeighbors(ctx context.Context, vectors [][]float32, neighborCount int) ([][]Neighbor, error) {
	if neighborCount <= 0 {
		neighborCount = DefaultNumNeighbors
	}
	p.mu.Lock()
	endpoint := p.endpoint
	deployedID := p.deployedID
	p.mu.Unlock()

	if endpoint == nil {
		p.logger.Error("no index endpoint found")
		return nil, fmt.Errorf("%w: no index endpoint resolved", core.ErrNotFound)
	}
	p.logger.Info("running neighbor query", "endpoint", endpoint.DisplayName, "vectors", len(vectors))
	if deployedID == "" {
		p.logger.Error("no index deployed at the chosen endpoint")
		return nil, fmt.Errorf("%w: endpoint %q has no deployment named %q",
			core.ErrNotFound, endpoint.DisplayName, p.deployedName)
	}

	neighbors, err := p.backend.FindNeighbors(ctx, endpoint.Name, deployedID, vectors, neighborCount)
	if err != nil {
		return nil, fmt.Errorf("neighbor query failed: %w", err)
	}
	return neighbors, nil
}
