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


package corpus

import "errors"

var (
	// ErrStorageClientRequired is returned when a storage client is not
	// provided.
	ErrStorageClientRequired = errors.New("storage client required")

	// ErrBucketRequired is returned when a bucket name is not provided.
	ErrBucketRequired = errors.New("bucket name required")

	// ErrWriteTaxonomy indicates a client-side storage failure while
	// writing corpus files. The write fails atomically as a whole.
	ErrWriteTaxonomy = errors.New("could not write taxonomy corpus")
)
