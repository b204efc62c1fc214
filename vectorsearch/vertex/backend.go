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


// Package vertex implements the vectorsearch.Backend against the Vertex AI
// Vector Search REST API.
package vertex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/taxonify/core"
	"github.com/poiesic/taxonify/vectorsearch"
	aiplatform "google.golang.org/api/aiplatform/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// operationPollInterval is the delay between long-running operation polls.
const operationPollInterval = 10 * time.Second

// Backend drives the Vertex AI Vector Search REST surface.
type Backend struct {
	service *aiplatform.Service
	parent  string
	logger  *slog.Logger
}

// NewBackend creates a backend bound to one project and region. Requests
// are sent to the regional service endpoint.
func NewBackend(ctx context.Context, project, location string) (*Backend, error) {
	service, err := aiplatform.NewService(ctx,
		option.WithEndpoint(fmt.Sprintf("https://%s-aiplatform.googleapis.com/", location)))
	if err != nil {
		return nil, fmt.Errorf("failed to create aiplatform service: %w", err)
	}
	return &Backend{
		service: service,
		parent:  fmt.Sprintf("projects/%s/locations/%s", project, location),
		logger:  slog.Default().With("component", "vertex-backend"),
	}, nil
}

// ListIndexes returns all indexes in the location.
func (b *Backend) ListIndexes(ctx context.Context) ([]vectorsearch.Index, error) {
	response, err := b.service.Projects.Locations.Indexes.List(b.parent).Context(ctx).Do()
	if err != nil {
		return nil, translateError(err)
	}
	indexes := make([]vectorsearch.Index, 0, len(response.Indexes))
	for _, index := range response.Indexes {
		indexes = append(indexes, vectorsearch.Index{
			Name:        index.Name,
			DisplayName: index.DisplayName,
		})
	}
	return indexes, nil
}

// CreateIndex creates a tree-AH index over the corpus in the object store
// and waits for the creation operation to finish.
func (b *Backend) CreateIndex(ctx context.Context, spec vectorsearch.IndexSpec) (vectorsearch.Index, error) {
	index := &aiplatform.GoogleCloudAiplatformV1Index{
		DisplayName:       spec.DisplayName,
		IndexUpdateMethod: "BATCH_UPDATE",
		Metadata: map[string]any{
			"contentsDeltaUri": spec.ContentsURI,
			"config": map[string]any{
				"dimensions":                spec.Dimensions,
				"approximateNeighborsCount": spec.ApproximateNeighborsCount,
				"distanceMeasureType":       spec.DistanceMeasureType,
				"featureNormType":           spec.FeatureNormType,
				"shardSize":                 spec.ShardSize,
				"algorithmConfig": map[string]any{
					"treeAhConfig": map[string]any{},
				},
			},
		},
	}

	operation, err := b.service.Projects.Locations.Indexes.Create(b.parent, index).Context(ctx).Do()
	if err != nil {
		return vectorsearch.Index{}, translateError(err)
	}
	if err := b.waitOperation(ctx, operation.Name); err != nil {
		return vectorsearch.Index{}, err
	}

	created, err := b.findIndexByDisplayName(ctx, spec.DisplayName)
	if err != nil {
		return vectorsearch.Index{}, err
	}
	return created, nil
}

func (b *Backend) findIndexByDisplayName(ctx context.Context, displayName string) (vectorsearch.Index, error) {
	indexes, err := b.ListIndexes(ctx)
	if err != nil {
		return vectorsearch.Index{}, err
	}
	for _, index := range indexes {
		if index.DisplayName == displayName {
			return index, nil
		}
	}
	return vectorsearch.Index{}, fmt.Errorf("%w: index %q not visible after creation",
		core.ErrNotFound, displayName)
}

// ListEndpoints returns all index endpoints in the location, including
// their deployments.
func (b *Backend) ListEndpoints(ctx context.Context) ([]vectorsearch.Endpoint, error) {
	response, err := b.service.Projects.Locations.IndexEndpoints.List(b.parent).Context(ctx).Do()
	if err != nil {
		return nil, translateError(err)
	}
	endpoints := make([]vectorsearch.Endpoint, 0, len(response.IndexEndpoints))
	for _, endpoint := range response.IndexEndpoints {
		endpoints = append(endpoints, toEndpoint(endpoint))
	}
	return endpoints, nil
}

func toEndpoint(endpoint *aiplatform.GoogleCloudAiplatformV1IndexEndpoint) vectorsearch.Endpoint {
	deployments := make([]vectorsearch.Deployment, 0, len(endpoint.DeployedIndexes))
	for _, deployed := range endpoint.DeployedIndexes {
		createTime, _ := time.Parse(time.RFC3339Nano, deployed.CreateTime)
		deployments = append(deployments, vectorsearch.Deployment{
			ID:          deployed.Id,
			DisplayName: deployed.DisplayName,
			CreateTime:  createTime,
		})
	}
	return vectorsearch.Endpoint{
		Name:        endpoint.Name,
		DisplayName: endpoint.DisplayName,
		Deployments: deployments,
	}
}

// CreateEndpoint creates an index endpoint attached to the deployment
// network and waits for it to become visible.
func (b *Backend) CreateEndpoint(ctx context.Context, displayName, network string) (vectorsearch.Endpoint, error) {
	endpoint := &aiplatform.GoogleCloudAiplatformV1IndexEndpoint{
		DisplayName: displayName,
		Network:     network,
	}
	operation, err := b.service.Projects.Locations.IndexEndpoints.Create(b.parent, endpoint).Context(ctx).Do()
	if err != nil {
		return vectorsearch.Endpoint{}, translateError(err)
	}
	if err := b.waitOperation(ctx, operation.Name); err != nil {
		return vectorsearch.Endpoint{}, err
	}

	endpoints, err := b.ListEndpoints(ctx)
	if err != nil {
		return vectorsearch.Endpoint{}, err
	}
	for _, created := range endpoints {
		if created.DisplayName == displayName {
			return created, nil
		}
	}
	return vectorsearch.Endpoint{}, fmt.Errorf("%w: endpoint %q not visible after creation",
		core.ErrNotFound, displayName)
}

// DeleteEndpoint removes an endpoint. With force set, every deployed index
// is undeployed first.
func (b *Backend) DeleteEndpoint(ctx context.Context, name string, force bool) error {
	if force {
		endpoint, err := b.service.Projects.Locations.IndexEndpoints.Get(name).Context(ctx).Do()
		if err != nil {
			return translateError(err)
		}
		for _, deployed := range endpoint.DeployedIndexes {
			b.logger.Info("undeploying index", "endpoint", name, "deployedId", deployed.Id)
			operation, err := b.service.Projects.Locations.IndexEndpoints.UndeployIndex(name,
				&aiplatform.GoogleCloudAiplatformV1UndeployIndexRequest{
					DeployedIndexId: deployed.Id,
				}).Context(ctx).Do()
			if err != nil {
				return translateError(err)
			}
			if err := b.waitOperation(ctx, operation.Name); err != nil {
				return err
			}
		}
	}

	operation, err := b.service.Projects.Locations.IndexEndpoints.Delete(name).Context(ctx).Do()
	if err != nil {
		return translateError(err)
	}
	return b.waitOperation(ctx, operation.Name)
}

// DeployIndex starts deploying an index onto an endpoint. The deployment
// continues asynchronously on the backend; completion is not awaited here.
func (b *Backend) DeployIndex(ctx context.Context, endpointName string, spec vectorsearch.DeploymentSpec) error {
	request := &aiplatform.GoogleCloudAiplatformV1DeployIndexRequest{
		DeployedIndex: &aiplatform.GoogleCloudAiplatformV1DeployedIndex{
			Id:          spec.ID,
			DisplayName: spec.DisplayName,
			Index:       spec.IndexName,
			DedicatedResources: &aiplatform.GoogleCloudAiplatformV1DedicatedResources{
				MachineSpec: &aiplatform.GoogleCloudAiplatformV1MachineSpec{
					MachineType: spec.MachineType,
				},
				MinReplicaCount: spec.MinReplicaCount,
				MaxReplicaCount: spec.MaxReplicaCount,
			},
		},
	}

	_, err := b.service.Projects.Locations.IndexEndpoints.DeployIndex(endpointName, request).Context(ctx).Do()
	if err != nil {
		return translateDeployError(err, spec.ID)
	}
	return nil
}

// FindNeighbors runs a nearest-neighbor query for each vector against the
// given deployment. One ranked neighbor list is returned per query vector,
// in the backend's own ordering.
func (b *Backend) FindNeighbors(ctx context.Context, endpointName, deployedID string, vectors [][]float32, neighborCount int) ([][]vectorsearch.Neighbor, error) {
	queries := make([]*aiplatform.GoogleCloudAiplatformV1FindNeighborsRequestQuery, len(vectors))
	for i, vector := range vectors {
		features := make([]float64, len(vector))
		for j, value := range vector {
			features[j] = float64(value)
		}
		queries[i] = &aiplatform.GoogleCloudAiplatformV1FindNeighborsRequestQuery{
			Datapoint: &aiplatform.GoogleCloudAiplatformV1IndexDatapoint{
				DatapointId:   fmt.Sprintf("query_%d", i),
				FeatureVector: features,
			},
			NeighborCount: int64(neighborCount),
		}
	}

	response, err := b.service.Projects.Locations.IndexEndpoints.FindNeighbors(endpointName,
		&aiplatform.GoogleCloudAiplatformV1FindNeighborsRequest{
			DeployedIndexId: deployedID,
			Queries:         queries,
		}).Context(ctx).Do()
	if err != nil {
		return nil, translateError(err)
	}

	results := make([][]vectorsearch.Neighbor, len(response.NearestNeighbors))
	for i, nearest := range response.NearestNeighbors {
		neighbors := make([]vectorsearch.Neighbor, 0, len(nearest.Neighbors))
		for _, neighbor := range nearest.Neighbors {
			id := ""
			if neighbor.Datapoint != nil {
				id = neighbor.Datapoint.DatapointId
			}
			neighbors = append(neighbors, vectorsearch.Neighbor{
				ID:       id,
				Distance: neighbor.Distance,
			})
		}
		results[i] = neighbors
	}
	return results, nil
}

// waitOperation polls a long-running operation until it finishes.
func (b *Backend) waitOperation(ctx context.Context, name string) error {
	for {
		operation, err := b.service.Projects.Locations.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return translateError(err)
		}
		if operation.Done {
			if operation.Error != nil {
				return fmt.Errorf("operation %s failed: %s", name, operation.Error.Message)
			}
			return nil
		}

		timer := time.NewTimer(operationPollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// translateError maps rate-limit responses onto core.ErrResourceExhausted.
// Other provider errors pass through unchanged.
func translateError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", core.ErrResourceExhausted, err)
	}
	return err
}

// translateDeployError distinguishes the two deploy failure modes that need
// different handling. A failed precondition means the index has not finished
// provisioning, which is recoverable by retrying later. A conflict on the
// deployment id indicates caller misuse and is propagated unchanged.
func translateDeployError(err error, deployedID string) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case http.StatusConflict:
		return err
	case http.StatusBadRequest:
		return fmt.Errorf("%w: deployment %s: %v", core.ErrCreationInProgress, deployedID, err)
	}
	return translateError(err)
}
