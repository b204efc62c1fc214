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


package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/poiesic/taxonify/core"
	"github.com/poiesic/taxonify/corpus"
	"github.com/poiesic/taxonify/embedding"
	"github.com/poiesic/taxonify/sheets"
	"github.com/poiesic/taxonify/vectorsearch"
)

// StatusTracker records pipeline progress for polling callers.
type StatusTracker interface {
	Add(ctx context.Context, taskID string) error
	Update(ctx context.Context, taskID string, status core.TaskStatus) error
}

// Embedder computes embeddings for keyed texts.
type Embedder interface {
	Embed(ctx context.Context, items []embedding.Item) (map[string][]float32, error)
}

// IndexPublisher publishes the embedded corpus to the search backend.
type IndexPublisher interface {
	TeardownAllEndpoints(ctx context.Context) error
	FindOrCreateIndex(ctx context.Context, displayName string) (vectorsearch.Index, error)
	FindOrCreateEndpoint(ctx context.Context, displayName string) (vectorsearch.Endpoint, error)
	Deploy(ctx context.Context, index vectorsearch.Index, endpoint vectorsearch.Endpoint, displayName string) (string, error)
}

// SheetLocation identifies the spreadsheet column holding the taxonomy.
type SheetLocation struct {
	SpreadsheetID string
	WorksheetName string
	ColumnIndex   int
	HasHeader     bool
}

// Pipeline sequences one taxonomy ingestion task end to end: read the
// categories, embed them, stage the corpus, and publish the index. Each
// stage transition is committed to the tracker before the work begins, so
// a crash mid-stage leaves the status reflecting "was attempting X". The
// terminal SUCCEEDED transition is committed only after everything else
// succeeded.
//
// The pipeline fails fast: any step error is returned to the caller, which
// is responsible for recording the FAILED status. No step is retried here
// beyond what the components retry internally, and a started stage cannot
// be cancelled from outside.
type Pipeline struct {
	tracker   StatusTracker
	reader    sheets.ColumnReader
	embedder  Embedder
	writer    corpus.Writer
	publisher IndexPublisher
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a taxonomy ingestion pipeline.
func NewPipeline(
	tracker StatusTracker,
	reader sheets.ColumnReader,
	embedder Embedder,
	writer corpus.Writer,
	publisher IndexPublisher,
	opts ...Option,
) (*Pipeline, error) {
	if tracker == nil {
		return nil, ErrTrackerRequired
	}
	if reader == nil {
		return nil, ErrReaderRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if writer == nil {
		return nil, ErrWriterRequired
	}
	if publisher == nil {
		return nil, ErrPublisherRequired
	}

	p := &Pipeline{
		tracker:   tracker,
		reader:    reader,
		embedder:  embedder,
		writer:    writer,
		publisher: publisher,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes the full ingestion sequence for one task.
func (p *Pipeline) Run(ctx context.Context, taskID string, sheet SheetLocation) error {
	if err := p.tracker.Add(ctx, taskID); err != nil {
		return err
	}
	p.logger.Info("taxonomy pipeline started", "taskId", taskID)

	taxonomy, err := p.readTaxonomy(ctx, taskID, sheet)
	if err != nil {
		return err
	}

	if err := p.addEmbeddings(ctx, taskID, taxonomy); err != nil {
		return err
	}

	if err := p.tracker.Update(ctx, taskID, core.TaskStatusWritingEmbeddingsToGCS); err != nil {
		return err
	}
	if err := p.writer.WriteCorpus(ctx, taxonomy.CategoryEmbeddings()); err != nil {
		return err
	}
	p.logger.Info("wrote taxonomy embeddings to storage", "taskId", taskID)

	if err := p.publisher.TeardownAllEndpoints(ctx); err != nil {
		return err
	}
	p.logger.Info("removed all previously created index endpoints", "taskId", taskID)

	if err := p.tracker.Update(ctx, taskID, core.TaskStatusCreatingIndex); err != nil {
		return err
	}
	index, err := p.publisher.FindOrCreateIndex(ctx, vectorsearch.DefaultIndexDisplayName)
	if err != nil {
		return err
	}
	p.logger.Info("created embeddings index", "taskId", taskID, "index", index.Name)

	if err := p.tracker.Update(ctx, taskID, core.TaskStatusCreatingIndexEndpoint); err != nil {
		return err
	}
	endpoint, err := p.publisher.FindOrCreateEndpoint(ctx, vectorsearch.DefaultEndpointDisplayName)
	if err != nil {
		return err
	}
	p.logger.Info("created embeddings index endpoint", "taskId", taskID, "endpoint", endpoint.Name)

	if err := p.tracker.Update(ctx, taskID, core.TaskStatusDeployingIndex); err != nil {
		return err
	}
	deployedID, err := p.publisher.Deploy(ctx, index, endpoint, vectorsearch.DefaultDeployedDisplayName)
	if err != nil {
		return err
	}
	p.logger.Info("deployed embeddings index to endpoint", "taskId", taskID, "deployedId", deployedID)

	return p.tracker.Update(ctx, taskID, core.TaskStatusSucceeded)
}

// readTaxonomy builds the taxonomy from the spreadsheet column, preserving
// source order.
func (p *Pipeline) readTaxonomy(ctx context.Context, taskID string, sheet SheetLocation) (*core.Taxonomy, error) {
	p.logger.Info("reading taxonomy from spreadsheet",
		"taskId", taskID, "spreadsheetId", sheet.SpreadsheetID, "worksheet", sheet.WorksheetName)

	names, err := p.reader.ReadColumn(ctx, sheet.SpreadsheetID, sheet.WorksheetName, sheet.ColumnIndex, sheet.HasHeader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadTaxonomy, err)
	}

	categories := make([]*core.Category, len(names))
	for i, name := range names {
		categories[i] = &core.Category{Id: strconv.Itoa(i), Name: name}
	}
	p.logger.Info("read taxonomy from spreadsheet", "taskId", taskID, "categories", len(categories))
	return &core.Taxonomy{EntityId: taskID, Categories: categories}, nil
}

// addEmbeddings computes an embedding for every category name and attaches
// it in place. Category names are the embedding keys, so they must be
// unique within the taxonomy.
func (p *Pipeline) addEmbeddings(ctx context.Context, taskID string, taxonomy *core.Taxonomy) error {
	if err := p.tracker.Update(ctx, taskID, core.TaskStatusGettingEmbeddings); err != nil {
		return err
	}

	items := make([]embedding.Item, len(taxonomy.Categories))
	for i, category := range taxonomy.Categories {
		items[i] = embedding.Item{Key: category.Name, Text: category.Name}
	}

	vectors, err := p.embedder.Embed(ctx, items)
	if err != nil {
		return err
	}
	for _, category := range taxonomy.Categories {
		category.Embedding = vectors[category.Name]
	}
	p.logger.Info("added embeddings to taxonomy", "taskId", taskID)
	return nil
}
