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


package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/poiesic/taxonify/core"
	"github.com/poiesic/taxonify/taxonomy"
)

// Classifier resolves text and media inputs against the deployed index.
type Classifier interface {
	Classify(ctx context.Context, texts, media []string, includeEmbeddings bool) ([]core.ClassifyResult, error)
}

// PipelineRunner executes one taxonomy ingestion task.
type PipelineRunner interface {
	Run(ctx context.Context, taskID string, sheet taxonomy.SheetLocation) error
}

// TaskStore reads and updates task status records.
type TaskStore interface {
	Update(ctx context.Context, taskID string, status core.TaskStatus) error
	Get(ctx context.Context, taskID string) (core.TaskRecord, error)
}

// Server exposes the HTTP boundary: synchronous classification, pipeline
// enqueueing, and task status polling. Pipeline runs happen out-of-band
// on their own goroutine with a background context, so a dropped HTTP
// connection never aborts a run in progress.
type Server struct {
	app        *fiber.App
	classifier Classifier
	pipeline   PipelineRunner
	tasks      TaskStore
	sheet      taxonomy.SheetLocation
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates the HTTP server. The sheet location is the taxonomy source
// used for enqueued pipeline runs; request bodies may override its fields.
func New(classifier Classifier, pipeline PipelineRunner, tasks TaskStore, sheet taxonomy.SheetLocation, opts ...Option) (*Server, error) {
	if classifier == nil {
		return nil, ErrClassifierRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if tasks == nil {
		return nil, ErrTaskStoreRequired
	}

	s := &Server{
		classifier: classifier,
		pipeline:   pipeline,
		tasks:      tasks,
		sheet:      sheet,
		logger:     slog.Default().With("component", "http-server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "taxonify",
		DisableStartupMessage: true,
	})
	s.app.Get("/", s.handleWelcome)
	s.app.Post("/classify", s.handleClassify)
	s.app.Post("/generate_taxonomy_embeddings", s.handleGenerateEmbeddings)
	s.app.Get("/task_status/:task_id", s.handleTaskStatus)
	return s, nil
}

// App returns the underlying fiber application, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on the given address until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleWelcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "welcome to the taxonomy classification service",
	})
}

func (s *Server) handleClassify(c *fiber.Ctx) error {
	var req ClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	results, err := s.classifier.Classify(c.UserContext(), req.Text, req.Media, req.IncludeEmbeddings)
	if err != nil {
		return s.renderError(c, err)
	}
	return c.JSON(ClassifyResponse{Results: results})
}

func (s *Server) handleGenerateEmbeddings(c *fiber.Ctx) error {
	var req GenerateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}

	taskID := uuid.NewString()
	sheet := s.resolveSheet(req)
	go s.runPipeline(taskID, sheet)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"task_id": taskID,
		"message": "taxonomy embedding generation started",
	})
}

func (s *Server) handleTaskStatus(c *fiber.Ctx) error {
	record, err := s.tasks.Get(c.UserContext(), c.Params("task_id"))
	if err != nil {
		return s.renderError(c, err)
	}
	return c.JSON(record)
}

// runPipeline executes one ingestion task in the background. Failures are
// recorded as a terminal FAILED status; the error itself is logged, not
// persisted.
func (s *Server) runPipeline(taskID string, sheet taxonomy.SheetLocation) {
	ctx := context.Background()
	if err := s.pipeline.Run(ctx, taskID, sheet); err != nil {
		s.logger.Error("taxonomy pipeline failed", "taskId", taskID, "error", err)
		if updateErr := s.tasks.Update(ctx, taskID, core.TaskStatusFailed); updateErr != nil {
			s.logger.Error("could not record task failure", "taskId", taskID, "error", updateErr)
		}
	}
}

// resolveSheet overlays request fields on the configured sheet location.
func (s *Server) resolveSheet(req GenerateRequest) taxonomy.SheetLocation {
	sheet := s.sheet
	if req.SpreadsheetID != "" {
		sheet.SpreadsheetID = req.SpreadsheetID
	}
	if req.WorksheetName != "" {
		sheet.WorksheetName = req.WorksheetName
	}
	if req.ColumnIndex > 0 {
		sheet.ColumnIndex = req.ColumnIndex
	}
	if req.HasHeader != nil {
		sheet.HasHeader = *req.HasHeader
	}
	return sheet
}

// renderError maps cross-cutting error kinds to HTTP statuses.
func (s *Server) renderError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrUnsupportedMediaType):
		status = fiber.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, core.ErrResourceExhausted):
		status = fiber.StatusTooManyRequests
	}
	if status == fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
