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


// Package ai provides abstractions for the AI services used by the
// taxonomy pipeline.
//
// Two interfaces cover the model calls the pipeline makes:
//
//   - TextEmbedder: generates embedding vectors for batches of text
//   - MediaModel: generates textual descriptions of image and video files
//
// Provider aggregates both behind a single construction and shutdown point
// so the process holds exactly one underlying client.
//
// Implementation packages:
//
//   - ai/vertex: production implementation backed by Vertex AI via
//     google.golang.org/genai
//   - ai/mock: test doubles for unit testing without network access
//
// Public constructors return interface types to keep callers decoupled from
// concrete implementations; mock constructors return concrete types so tests
// can inject behavior and assert call counts.
package ai
