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


package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/poiesic/taxonify/core"
)

// Named statements for the task status table. Each tracker operation is a
// single statement against the backing store.
const (
	stmtCreateTaskTable = `CREATE TABLE IF NOT EXISTS task_status (
		task_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		time_created TIMESTAMPTZ NOT NULL DEFAULT now(),
		time_updated TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

	stmtInsertTask = `INSERT INTO task_status (task_id, status) VALUES ($1, $2)
		ON CONFLICT (task_id) DO NOTHING`

	stmtUpdateTaskStatus = `UPDATE task_status
		SET status = $2, time_updated = $3 WHERE task_id = $1`

	stmtSelectTaskStatus = `SELECT task_id, status, time_created, time_updated
		FROM task_status WHERE task_id = $1
		ORDER BY time_updated DESC LIMIT 1`
)

// Querier is the slice of the pgx pool surface the tracker uses.
// *pgxpool.Pool satisfies it; tests provide fakes.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Tracker persists and advances per-task pipeline status. Transitions are
// not validated as forward-only; callers are trusted.
type Tracker struct {
	db     Querier
	now    func() time.Time
	logger *slog.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock overrides the time source used for time_updated.
// Default is time.Now. Tests inject a fixed clock.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTracker creates a tracker over a database handle.
func NewTracker(db Querier, opts ...TrackerOption) (*Tracker, error) {
	if db == nil {
		return nil, ErrQuerierRequired
	}
	t := &Tracker{
		db:     db,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// EnsureSchema creates the task status table if it does not exist.
func (t *Tracker) EnsureSchema(ctx context.Context) error {
	if _, err := t.db.Exec(ctx, stmtCreateTaskTable); err != nil {
		return fmt.Errorf("%w: failed to create task_status table: %v", core.ErrPersistence, err)
	}
	return nil
}

// Add registers a fresh task with status STARTED. When a row for the id
// already exists the insert reports a conflict and Add falls back to
// updating that row to STARTED, so Add is idempotent and safe to call at
// the start of a retried pipeline run. Two concurrent Adds for one id
// converge on a single row via the store's uniqueness constraint.
func (t *Tracker) Add(ctx context.Context, taskID string) error {
	tag, err := t.db.Exec(ctx, stmtInsertTask, taskID, string(core.TaskStatusStarted))
	if err != nil {
		t.logger.Error("could not create task", "taskId", taskID, "err", err)
		return fmt.Errorf("%w: failed to create task %s: %v", core.ErrPersistence, taskID, err)
	}
	if tag.RowsAffected() == 0 {
		t.logger.Debug("task already exists", "taskId", taskID)
		return t.Update(ctx, taskID, core.TaskStatusStarted)
	}
	t.logger.Info("created task", "taskId", taskID)
	return nil
}

// Update sets the task's status and bumps time_updated unconditionally.
func (t *Tracker) Update(ctx context.Context, taskID string, status core.TaskStatus) error {
	_, err := t.db.Exec(ctx, stmtUpdateTaskStatus, taskID, string(status), t.now().UTC())
	if err != nil {
		t.logger.Error("could not update task status", "taskId", taskID, "err", err)
		return fmt.Errorf("%w: failed to update task %s: %v", core.ErrPersistence, taskID, err)
	}
	t.logger.Info("set task status", "taskId", taskID, "status", status)
	return nil
}

// Get returns the most recently updated row for the task id. An unknown id
// yields a synthetic NOT_FOUND record with no timestamps; that is a normal
// outcome, distinct from a store fault.
func (t *Tracker) Get(ctx context.Context, taskID string) (core.TaskRecord, error) {
	rows, err := t.db.Query(ctx, stmtSelectTaskStatus, taskID)
	if err != nil {
		t.logger.Error("could not get task status", "taskId", taskID, "err", err)
		return core.TaskRecord{}, fmt.Errorf("%w: failed to get task %s: %v", core.ErrPersistence, taskID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.TaskRecord{}, fmt.Errorf("%w: failed to get task %s: %v", core.ErrPersistence, taskID, err)
		}
		return core.TaskRecord{TaskId: taskID, Status: core.TaskStatusNotFound}, nil
	}

	var record core.TaskRecord
	var status string
	var timeCreated, timeUpdated time.Time
	if err := rows.Scan(&record.TaskId, &status, &timeCreated, &timeUpdated); err != nil {
		return core.TaskRecord{}, fmt.Errorf("%w: failed to scan task %s: %v", core.ErrPersistence, taskID, err)
	}
	record.Status = core.TaskStatus(status)
	record.TimeCreated = &timeCreated
	record.TimeUpdated = &timeUpdated
	return record, nil
}
