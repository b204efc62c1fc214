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
	"time"
)

// Index identifies a nearest-neighbor index resource.
type Index struct {
	// Name is the backend resource name.
	Name string

	// DisplayName is the human-assigned name used for find-or-create
	// resolution; the backend has no get-by-name primitive.
	DisplayName string
}

// Deployment is one index deployed onto an endpoint.
type Deployment struct {
	ID          string
	DisplayName string
	CreateTime  time.Time
}

// Endpoint is a query endpoint that indexes can be deployed onto.
type Endpoint struct {
	Name        string
	DisplayName string
	Deployments []Deployment
}

// Neighbor is a single nearest-neighbor hit.
type Neighbor struct {
	ID       string
	Distance float64
}

// IndexSpec describes the geometry of an index to create over the corpus
// staged in the backing object store.
type IndexSpec struct {
	DisplayName               string
	ContentsURI               string
	Dimensions                int64
	ApproximateNeighborsCount int64
	DistanceMeasureType       string
	FeatureNormType           string
	ShardSize                 string
}

// DeploymentSpec describes one deployment of an index onto an endpoint.
type DeploymentSpec struct {
	ID              string
	DisplayName     string
	IndexName       string
	MachineType     string
	MinReplicaCount int64
	MaxReplicaCount int64
}

// Backend is the raw vector-search provider surface the Publisher drives.
// Implementations translate provider faults onto the core error kinds:
// rate limits to core.ErrResourceExhausted, deploys against a
// still-provisioning index to core.ErrCreationInProgress. A
// "deployment id already exists" conflict is passed through unchanged
// since it indicates caller misuse, not transient backend state.
type Backend interface {
	ListIndexes(ctx context.Context) ([]Index, error)
	CreateIndex(ctx context.Context, spec IndexSpec) (Index, error)
	ListEndpoints(ctx context.Context) ([]Endpoint, error)
	CreateEndpoint(ctx context.Context, displayName, network string) (Endpoint, error)

	// DeleteEndpoint removes an endpoint. With force set, any deployed
	// indexes are undeployed first.
	DeleteEndpoint(ctx context.Context, name string, force bool) error

	DeployIndex(ctx context.Context, endpointName string, spec DeploymentSpec) error

	// FindNeighbors returns one ranked neighbor list per query vector,
	// in the backend's own ranking order.
	FindNeighbors(ctx context.Context, endpointName, deployedID string, vectors [][]float32, neighborCount int) ([][]Neighbor, error)
}
