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

import "errors"

// Cross-cutting error kinds. Components wrap these with fmt.Errorf("%w: ...")
// so callers can classify failures with errors.Is without depending on the
// package that produced them.
var (
	// ErrUnsupportedMediaType indicates a media URI with an extension outside
	// the supported image/video allow-lists. Rejected before any network call
	// and never retried.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrNotFound indicates a required resource (endpoint, deployment) could
	// not be resolved. A normal outcome when classifying against an
	// unpublished taxonomy, distinct from a backend fault.
	ErrNotFound = errors.New("not found")

	// ErrCreationInProgress indicates a deploy was attempted against an index
	// that is still provisioning. Recoverable by retrying later.
	ErrCreationInProgress = errors.New("index creation in progress")

	// ErrResourceExhausted indicates the provider rejected a call due to
	// rate-limiting or quota exhaustion. Retried with bounded backoff at the
	// point of origin.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrPersistence wraps any database-layer fault. Always fatal to the
	// operation in progress.
	ErrPersistence = errors.New("persistence failure")
)
