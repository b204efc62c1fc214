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


// Package vectorsearch publishes taxonomy embeddings to a nearest-neighbor
// search backend and serves neighbor queries against the deployed index.
//
// Publisher drives the create index -> create endpoint -> deploy sequence.
// All three operations are idempotent by display-name convention: resources
// are found by listing and filtering on display name before anything is
// created. The vertex subpackage implements Backend against the Vertex AI
// Vector Search REST API.
package vectorsearch
