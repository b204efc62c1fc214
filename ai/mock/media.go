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


package mock

import (
	"context"
	"sync"

	"github.com/poiesic/taxonify/core"
)

// MockMediaModel is a test double for ai.MediaModel. It is safe for the
// concurrent use the describer's worker pool exercises.
type MockMediaModel struct {
	// DescribeMediaFunc is called by DescribeMedia if set.
	// If nil, returns "description of <uri>".
	DescribeMediaFunc func(ctx context.Context, uri string, kind core.MediaKind) (string, error)

	mu        sync.Mutex
	callCount int
	perURI    map[string]int
}

// NewMockMediaModel creates a mock media model.
// Returns the concrete type to allow test assertions.
func NewMockMediaModel() *MockMediaModel {
	return &MockMediaModel{perURI: make(map[string]int)}
}

// DescribeMedia records the call and returns a canned description, or
// delegates to DescribeMediaFunc when set.
func (m *MockMediaModel) DescribeMedia(ctx context.Context, uri string, kind core.MediaKind) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.perURI[uri]++
	m.mu.Unlock()

	if m.DescribeMediaFunc != nil {
		return m.DescribeMediaFunc(ctx, uri, kind)
	}
	return "description of " + uri, nil
}

// CallCount returns the total number of DescribeMedia calls.
func (m *MockMediaModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// CallCountFor returns the number of DescribeMedia calls for one URI.
func (m *MockMediaModel) CallCountFor(uri string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.perURI[uri]
}
