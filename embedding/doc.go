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


// Package embedding turns taxonomy categories and classification inputs
// into embedding vectors.
//
// BatchEmbedder partitions keyed texts into sequential provider batches of
// at most 200 items and maps the returned vectors back to their keys
// positionally. Describer fans media-description requests out across a
// bounded worker pool, retrying rate-limited items with exponential backoff
// under an explicit RetryPolicy.
package embedding
