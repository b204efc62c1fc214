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


package core

import (
	"slices"
	"time"
)

// Category is a single named entry in a taxonomy.
// It is created without an embedding and enriched in place once the
// embedding has been computed. Categories are never deleted individually;
// they only exist inside a Taxonomy.
type Category struct {
	Id        string
	Name      string
	Embedding []float32
}

// Taxonomy is the ordered collection of categories belonging to one
// pipeline run. EntityId is the id of the owning task. A Taxonomy is
// built once per run, persisted, and then discarded; it is not a
// long-lived mutable store.
type Taxonomy struct {
	EntityId   string
	Categories []*Category
}

// CategoryEmbedding pairs a category id with its embedding vector in the
// shape expected by the vector index corpus. The id is the category name,
// which is what nearest-neighbor queries resolve back to.
type CategoryEmbedding struct {
	Id        string    `json:"id"`
	Embedding []float32 `json:"embedding"`
}

// CategoryEmbeddings returns the taxonomy as a list of (name, embedding)
// corpus records in insertion order.
func (t *Taxonomy) CategoryEmbeddings() []CategoryEmbedding {
	out := make([]CategoryEmbedding, 0, len(t.Categories))
	for _, category := range t.Categories {
		out = append(out, CategoryEmbedding{
			Id:        category.Name,
			Embedding: category.Embedding,
		})
	}
	return out
}

// Equal reports whether two taxonomies contain the same set of
// (name, embedding) pairs. Category order is insertion order from the
// source and is deliberately ignored here.
func (t *Taxonomy) Equal(other *Taxonomy) bool {
	if other == nil || t.EntityId != other.EntityId {
		return false
	}
	if len(t.Categories) != len(other.Categories) {
		return false
	}

	sorted := func(categories []*Category) []*Category {
		out := slices.Clone(categories)
		slices.SortFunc(out, func(a, b *Category) int {
			switch {
			case a.Name < b.Name:
				return -1
			case a.Name > b.Name:
				return 1
			}
			return 0
		})
		return out
	}

	left := sorted(t.Categories)
	right := sorted(other.Categories)
	for i := range left {
		if left[i].Name != right[i].Name {
			return false
		}
		if !slices.Equal(left[i].Embedding, right[i].Embedding) {
			return false
		}
	}
	return true
}

// TaskStatus tracks the progress of a taxonomy ingestion task through the
// pipeline stages. Statuses are persisted by name.
type TaskStatus string

const (
	TaskStatusStarted                TaskStatus = "STARTED"
	TaskStatusGettingEmbeddings      TaskStatus = "IN_PROGRESS_GETTING_EMBEDDINGS"
	TaskStatusWritingEmbeddingsToGCS TaskStatus = "IN_PROGRESS_WRITING_EMBEDDINGS_TO_GCS"
	TaskStatusCreatingIndex          TaskStatus = "IN_PROGRESS_CREATING_EMBEDDINGS_INDEX"
	TaskStatusCreatingIndexEndpoint  TaskStatus = "IN_PROGRESS_CREATING_EMBEDDINGS_INDEX_ENDPOINT"
	TaskStatusDeployingIndex         TaskStatus = "IN_PROGRESS_DEPLOYING_EMBEDDINGS_INDEX_TO_ENDPOINT"
	TaskStatusSucceeded              TaskStatus = "SUCCEEDED"

	// TaskStatusNotFound is returned for lookups of an unknown task.
	// It is never persisted.
	TaskStatusNotFound TaskStatus = "NOT_FOUND"

	// TaskStatusFailed is a terminal status recorded by the caller when a
	// pipeline run raises an unhandled error.
	TaskStatusFailed TaskStatus = "FAILED"
)

// TaskRecord is the persisted state of one pipeline run. For a given
// TaskId at most one row is authoritative. The time fields are nil for
// synthetic NOT_FOUND records.
type TaskRecord struct {
	TaskId      string     `json:"task_id"`
	Status      TaskStatus `json:"status"`
	TimeCreated *time.Time `json:"time_created,omitempty"`
	TimeUpdated *time.Time `json:"time_updated,omitempty"`
}

// CategoryMatch is a single nearest-neighbor hit for a classified input.
type CategoryMatch struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// ClassifyResult is the outcome of classifying one text or media input.
// Exactly one of Text and MediaURI is set. MediaDescription is populated
// only for media inputs, and Embedding only when the caller asked for it.
// Results are immutable once returned.
type ClassifyResult struct {
	Text             string          `json:"text,omitempty"`
	MediaURI         string          `json:"media_uri,omitempty"`
	MediaDescription string          `json:"media_description,omitempty"`
	Categories       []CategoryMatch `json:"categories"`
	Embedding        []float32       `json:"embedding,omitempty"`
}
