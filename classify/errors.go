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


package classify

import "errors"

var (
	// ErrDescriberRequired is returned when a media describer is not provided.
	ErrDescriberRequired = errors.New("media describer required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrFinderRequired is returned when a neighbor finder is not provided.
	ErrFinderRequired = errors.New("neighbor finder required")

	// ErrNeighborMismatch indicates the index returned a different number
	// of neighbor lists than queries sent.
	ErrNeighborMismatch = errors.New("neighbor list count mismatch")
)
