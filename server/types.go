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
	"encoding/json"

	"github.com/poiesic/taxonify/core"
)

// StringList accepts either a JSON string or a JSON array of strings, so
// callers can send "text": "hello" and "text": ["a", "b"] interchangeably.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = StringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// ClassifyRequest is the body of POST /classify.
type ClassifyRequest struct {
	Text              StringList `json:"text"`
	Media             StringList `json:"media"`
	IncludeEmbeddings bool       `json:"include_embeddings"`
}

// ClassifyResponse is the body returned by POST /classify.
type ClassifyResponse struct {
	Results []core.ClassifyResult `json:"results"`
}

// GenerateRequest optionally overrides the configured taxonomy sheet
// location for POST /generate_taxonomy_embeddings.
type GenerateRequest struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	WorksheetName string `json:"worksheet_name"`
	ColumnIndex   int    `json:"column_index"`
	HasHeader     *bool  `json:"has_header"`
}
