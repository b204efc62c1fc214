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

import "errors"

// Default model identifiers for the Vertex provider.
const (
	DefaultEmbeddingModel  = "text-multilingual-embedding-002"
	DefaultGenerativeModel = "gemini-1.5-flash-001"
)

// Config holds configuration for AI service providers.
type Config struct {
	// Project is the Google Cloud project id.
	Project string

	// Location is the Google Cloud region, e.g. "us-central1".
	Location string

	// EmbeddingModel is the model identifier for text embeddings.
	EmbeddingModel string

	// GenerativeModel is the model identifier for media description.
	GenerativeModel string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingModel overrides the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithGenerativeModel overrides the generative model identifier.
func WithGenerativeModel(model string) ConfigOption {
	return func(c *Config) {
		c.GenerativeModel = model
	}
}

// NewConfig creates a Config for a project and location with default models.
func NewConfig(project, location string, opts ...ConfigOption) *Config {
	c := &Config{
		Project:         project,
		Location:        location,
		EmbeddingModel:  DefaultEmbeddingModel,
		GenerativeModel: DefaultGenerativeModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Project == "" {
		return errors.New("project required")
	}
	if c.Location == "" {
		return errors.New("location required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("embedding model required")
	}
	if c.GenerativeModel == "" {
		return errors.New("generative model required")
	}
	return nil
}
