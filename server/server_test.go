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
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/taxonify/core"
	"github.com/poiesic/taxonify/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClassifier records its inputs and returns one empty result per input.
type fakeClassifier struct {
	texts []string
	media []string
	err   error
}

func (f *fakeClassifier) Classify(ctx context.Context, texts, media []string, includeEmbeddings bool) ([]core.ClassifyResult, error) {
	f.texts = texts
	f.media = media
	if f.err != nil {
		return nil, f.err
	}
	results := make([]core.ClassifyResult, 0, len(texts)+len(media))
	for _, text := range texts {
		results = append(results, core.ClassifyResult{Text: text})
	}
	for _, uri := range media {
		results = append(results, core.ClassifyResult{MediaURI: uri})
	}
	return results, nil
}

// fakeRunner signals each Run over a channel so tests can wait for the
// background goroutine.
type fakeRunner struct {
	err  error
	runs chan string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{runs: make(chan string, 1)}
}

func (f *fakeRunner) Run(ctx context.Context, taskID string, sheet taxonomy.SheetLocation) error {
	f.runs <- taskID
	return f.err
}

// fakeTaskStore serves canned records and records failure updates.
type fakeTaskStore struct {
	mu      sync.Mutex
	records map[string]core.TaskRecord
	updates []core.TaskStatus
	getErr  error
	updated chan struct{}
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{
		records: make(map[string]core.TaskRecord),
		updated: make(chan struct{}, 1),
	}
}

func (f *fakeTaskStore) Update(ctx context.Context, taskID string, status core.TaskStatus) error {
	f.mu.Lock()
	f.updates = append(f.updates, status)
	f.mu.Unlock()
	select {
	case f.updated <- struct{}{}:
	default:
	}
	return nil
}

func (f *fakeTaskStore) Get(ctx context.Context, taskID string) (core.TaskRecord, error) {
	if f.getErr != nil {
		return core.TaskRecord{}, f.getErr
	}
	if record, ok := f.records[taskID]; ok {
		return record, nil
	}
	return core.TaskRecord{TaskId: taskID, Status: core.TaskStatusNotFound}, nil
}

func setupServer(t *testing.T) (*Server, *fakeClassifier, *fakeRunner, *fakeTaskStore) {
	t.Helper()

	classifier := &fakeClassifier{}
	runner := newFakeRunner()
	store := newFakeTaskStore()

	srv, err := New(classifier, runner, store, taxonomy.SheetLocation{
		SpreadsheetID: "default-sheet",
		WorksheetName: "Sheet1",
		ColumnIndex:   1,
		HasHeader:     true,
	})
	require.NoError(t, err)
	return srv, classifier, runner, store
}

func TestServer_Welcome(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	resp, err := srv.App().Test(newRequest(t, http.MethodGet, "/", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_Classify_ScalarAndListInputs(t *testing.T) {
	srv, classifier, _, _ := setupServer(t)

	body := `{"text": "hello", "media": ["a.jpeg", "b.mp4"]}`
	resp, err := srv.App().Test(newRequest(t, http.MethodPost, "/classify", body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Scalar text normalized to a singleton list.
	assert.Equal(t, []string{"hello"}, classifier.texts)
	assert.Equal(t, []string{"a.jpeg", "b.mp4"}, classifier.media)

	var parsed ClassifyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Len(t, parsed.Results, 3)
}

func TestServer_Classify_UnsupportedMediaIs400(t *testing.T) {
	srv, classifier, _, _ := setupServer(t)
	classifier.err = fmt.Errorf("%w: %q", core.ErrUnsupportedMediaType, "xyz")

	resp, err := srv.App().Test(newRequest(t, http.MethodPost, "/classify", `{"media": "x.xyz"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Classify_UnpublishedTaxonomyIs404(t *testing.T) {
	srv, classifier, _, _ := setupServer(t)
	classifier.err = fmt.Errorf("%w: no index endpoint resolved", core.ErrNotFound)

	resp, err := srv.App().Test(newRequest(t, http.MethodPost, "/classify", `{"text": "hello"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_GenerateEmbeddings_EnqueuesPipelineRun(t *testing.T) {
	srv, _, runner, _ := setupServer(t)

	resp, err := srv.App().Test(newRequest(t, http.MethodPost, "/generate_taxonomy_embeddings", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var parsed struct {
		TaskID  string `json:"task_id"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.NotEmpty(t, parsed.TaskID)

	select {
	case ranTask := <-runner.runs:
		assert.Equal(t, parsed.TaskID, ranTask)
	case <-time.After(time.Second):
		t.Fatal("pipeline run was not started")
	}
}

func TestServer_GenerateEmbeddings_FailureRecordsFailedStatus(t *testing.T) {
	srv, _, runner, store := setupServer(t)
	runner.err = fmt.Errorf("deploy blew up")

	resp, err := srv.App().Test(newRequest(t, http.MethodPost, "/generate_taxonomy_embeddings", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	<-runner.runs
	select {
	case <-store.updated:
	case <-time.After(time.Second):
		t.Fatal("failure status was not recorded")
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, []core.TaskStatus{core.TaskStatusFailed}, store.updates)
}

func TestServer_TaskStatus(t *testing.T) {
	srv, _, _, store := setupServer(t)
	created := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	store.records["task-1"] = core.TaskRecord{
		TaskId:      "task-1",
		Status:      core.TaskStatusSucceeded,
		TimeCreated: &created,
		TimeUpdated: &created,
	}

	resp, err := srv.App().Test(newRequest(t, http.MethodGet, "/task_status/task-1", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "task-1", body["task_id"])
	assert.Equal(t, string(core.TaskStatusSucceeded), body["status"])
	assert.Contains(t, body, "time_created")
	assert.Contains(t, body, "time_updated")
}

func TestServer_TaskStatus_UnknownTaskIsNormal(t *testing.T) {
	srv, _, _, _ := setupServer(t)

	resp, err := srv.App().Test(newRequest(t, http.MethodGet, "/task_status/never-seen", ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "never-seen", body["task_id"])
	assert.Equal(t, string(core.TaskStatusNotFound), body["status"])
	assert.NotContains(t, body, "time_created")
	assert.NotContains(t, body, "time_updated")
}

func TestServer_TaskStatus_StoreFaultIs500(t *testing.T) {
	srv, _, _, store := setupServer(t)
	store.getErr = fmt.Errorf("%w: connection refused", core.ErrPersistence)

	resp, err := srv.App().Test(newRequest(t, http.MethodGet, "/task_status/task-1", ""))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestStringList_UnmarshalJSON(t *testing.T) {
	t.Run("scalar", func(t *testing.T) {
		var l StringList
		require.NoError(t, json.Unmarshal([]byte(`"hello"`), &l))
		assert.Equal(t, StringList{"hello"}, l)
	})

	t.Run("list", func(t *testing.T) {
		var l StringList
		require.NoError(t, json.Unmarshal([]byte(`["a", "b"]`), &l))
		assert.Equal(t, StringList{"a", "b"}, l)
	})

	t.Run("invalid", func(t *testing.T) {
		var l StringList
		assert.Error(t, json.Unmarshal([]byte(`42`), &l))
	})
}

func newRequest(t *testing.T, method, path, body string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}
