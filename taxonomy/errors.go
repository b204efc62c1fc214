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

import "errors"

var (
	// ErrTrackerRequired is returned when a status tracker is not provided.
	ErrTrackerRequired = errors.New("status tracker required")

	// ErrReaderRequired is returned when a column reader is not provided.
	ErrReaderRequired = errors.New("column reader required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrWriterRequired is returned when a corpus writer is not provided.
	ErrWriterRequired = errors.New("corpus writer required")

	// ErrPublisherRequired is returned when an index publisher is not provided.
	ErrPublisherRequired = errors.New("index publisher required")

	// ErrReadTaxonomy indicates the taxonomy could not be read from its
	// spreadsheet source.
	ErrReadTaxonomy = errors.New("could not read taxonomy")
)
