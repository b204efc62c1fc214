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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/poiesic/taxonify/ai"
	aivertex "github.com/poiesic/taxonify/ai/vertex"
	"github.com/poiesic/taxonify/config"
	"github.com/poiesic/taxonify/core"
	"github.com/poiesic/taxonify/corpus"
	"github.com/poiesic/taxonify/embedding"
	"github.com/poiesic/taxonify/sheets"
	"github.com/poiesic/taxonify/tasks"
	"github.com/poiesic/taxonify/taxonomy"
	"github.com/poiesic/taxonify/vectorsearch"
	vsvertex "github.com/poiesic/taxonify/vectorsearch/vertex"
)

func main() {
	app := &cli.App{
		Name:  "taxonomyjob",
		Usage: "Run one taxonomy embedding pipeline to completion and exit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "task-id",
				Usage: "Task id to record progress under (defaults to a new UUID, TASK_ID env honored)",
			},
		},
		Before: setupLogger,
		Action: runCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	taskID := c.String("task-id")
	if taskID == "" {
		taskID = os.Getenv("TASK_ID")
	}
	if taskID == "" {
		taskID = uuid.NewString()
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to task database: %w", err)
	}
	defer pool.Close()

	tracker, err := tasks.NewTracker(pool)
	if err != nil {
		return fmt.Errorf("failed to create task tracker: %w", err)
	}
	if err := tracker.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure task schema: %w", err)
	}

	var aiOpts []ai.ConfigOption
	if cfg.EmbeddingModel != "" {
		aiOpts = append(aiOpts, ai.WithEmbeddingModel(cfg.EmbeddingModel))
	}
	aiConfig := ai.NewConfig(cfg.Project, cfg.Location, aiOpts...)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	provider, err := aivertex.NewProvider(ctx, aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer provider.Close()

	embedder, err := embedding.NewBatchEmbedder(provider.TextEmbedder())
	if err != nil {
		return fmt.Errorf("failed to create batch embedder: %w", err)
	}

	backend, err := vsvertex.NewBackend(ctx, cfg.Project, cfg.Location)
	if err != nil {
		return fmt.Errorf("failed to create vector search backend: %w", err)
	}
	publisher, err := vectorsearch.NewPublisher(ctx, backend, "gs://"+cfg.Bucket, cfg.Network)
	if err != nil {
		return fmt.Errorf("failed to create index publisher: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create storage client: %w", err)
	}
	defer storageClient.Close()

	writer, err := corpus.NewGCSWriter(storageClient, cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to create corpus writer: %w", err)
	}

	sheetsService, err := sheetsapi.NewService(ctx)
	if err != nil {
		return fmt.Errorf("failed to create sheets service: %w", err)
	}
	reader, err := sheets.NewGoogleReader(sheetsService)
	if err != nil {
		return fmt.Errorf("failed to create sheet reader: %w", err)
	}

	pipeline, err := taxonomy.NewPipeline(tracker, reader, embedder, writer, publisher)
	if err != nil {
		return fmt.Errorf("failed to create taxonomy pipeline: %w", err)
	}

	sheet := taxonomy.SheetLocation{
		SpreadsheetID: cfg.Sheet.SpreadsheetID,
		WorksheetName: cfg.Sheet.WorksheetName,
		ColumnIndex:   cfg.Sheet.ColumnIndex,
		HasHeader:     cfg.Sheet.HasHeader,
	}

	if err := pipeline.Run(ctx, taskID, sheet); err != nil {
		slog.Error("taxonomy pipeline failed", "taskId", taskID, "error", err)
		if updateErr := tracker.Update(ctx, taskID, core.TaskStatusFailed); updateErr != nil {
			slog.Error("could not record task failure", "taskId", taskID, "error", updateErr)
		}
		return fmt.Errorf("pipeline run %s failed: %w", taskID, err)
	}

	slog.Info("taxonomy pipeline complete", "taskId", taskID)
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
