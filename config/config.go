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


// Package config loads service configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all service configuration.
type Config struct {
	// Project is the GCP project id.
	Project string
	// Location is the GCP region hosting the AI and search backends.
	Location string
	// Bucket is the object storage bucket staging the embedding corpus.
	Bucket string
	// Network is the VPC network the index endpoint attaches to.
	Network string
	// DatabaseURL is the connection string for the task status store.
	DatabaseURL string
	// ListenAddr is the HTTP listen address.
	ListenAddr string
	// EmbeddingModel optionally overrides the default embedding model.
	EmbeddingModel string
	// GenerativeModel optionally overrides the default media model.
	GenerativeModel string

	// Sheet identifies where the taxonomy categories live.
	Sheet SheetConfig
}

// SheetConfig identifies the spreadsheet column holding the taxonomy.
type SheetConfig struct {
	SpreadsheetID string
	WorksheetName string
	ColumnIndex   int
	HasHeader     bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables win over file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Project:         os.Getenv("GCP_PROJECT_ID"),
		Location:        os.Getenv("GCP_REGION"),
		Bucket:          os.Getenv("BUCKET_NAME"),
		Network:         os.Getenv("VPC_NETWORK_ID"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ListenAddr:      getenv("LISTEN_ADDR", ":8080"),
		EmbeddingModel:  os.Getenv("EMBEDDING_MODEL"),
		GenerativeModel: os.Getenv("GENERATIVE_MODEL"),
		Sheet: SheetConfig{
			SpreadsheetID: os.Getenv("SPREADSHEET_ID"),
			WorksheetName: getenv("WORKSHEET_NAME", "Sheet1"),
			ColumnIndex:   getenvInt("WORKSHEET_COL_INDEX", 1),
			HasHeader:     getenvBool("HEADER", true),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("%w: GCP_PROJECT_ID", ErrMissingSetting)
	}
	if c.Location == "" {
		return fmt.Errorf("%w: GCP_REGION", ErrMissingSetting)
	}
	if c.Bucket == "" {
		return fmt.Errorf("%w: BUCKET_NAME", ErrMissingSetting)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL", ErrMissingSetting)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
