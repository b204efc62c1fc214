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


package embedding

import "errors"

var (
	// ErrEmbedderRequired is returned when a text embedder is not provided.
	ErrEmbedderRequired = errors.New("text embedder required")

	// ErrMediaModelRequired is returned when a media model is not provided.
	ErrMediaModelRequired = errors.New("media model required")

	// ErrBatchMismatch indicates the provider returned a different number of
	// vectors than texts sent in a batch. This breaks positional key
	// alignment and is fatal.
	ErrBatchMismatch = errors.New("embedding count mismatch")

	// ErrDuplicateKey indicates two input items share a key.
	ErrDuplicateKey = errors.New("duplicate embedding key")

	// ErrInvalidMaxAttempts indicates a retry policy with a non-positive
	// attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")
)
