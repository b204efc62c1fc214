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


// Package sheets reads taxonomy categories out of a spreadsheet column.
package sheets

import (
	"context"
	"fmt"
	"log/slog"

	sheetsapi "google.golang.org/api/sheets/v4"
)

// ColumnReader reads one column of a worksheet. The column index is
// 1-based; when hasHeader is set the header row is stripped.
type ColumnReader interface {
	ReadColumn(ctx context.Context, spreadsheetID, worksheetName string, columnIndex int, hasHeader bool) ([]string, error)
}

// GoogleReader implements ColumnReader against the Google Sheets API.
type GoogleReader struct {
	service *sheetsapi.Service
	logger  *slog.Logger
}

// NewGoogleReader creates a reader over a Sheets service.
//
// Returns ColumnReader to enforce abstraction.
func NewGoogleReader(service *sheetsapi.Service) (ColumnReader, error) {
	if service == nil {
		return nil, ErrServiceRequired
	}
	return &GoogleReader{
		service: service,
		logger:  slog.Default().With("component", "sheets-reader"),
	}, nil
}

// ReadColumn returns the non-empty cell values of one worksheet column.
func (r *GoogleReader) ReadColumn(ctx context.Context, spreadsheetID, worksheetName string, columnIndex int, hasHeader bool) ([]string, error) {
	label, err := columnLabel(columnIndex)
	if err != nil {
		return nil, err
	}

	readRange := fmt.Sprintf("%s!%s:%s", worksheetName, label, label)
	r.logger.Info("reading spreadsheet column",
		"spreadsheetId", spreadsheetID, "range", readRange)

	response, err := r.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s range %s: %w", spreadsheetID, readRange, err)
	}

	values := flattenColumn(response.Values)
	return stripHeader(values, hasHeader), nil
}

// columnLabel converts a 1-based column index to its A1 letter form,
// e.g. 1 -> A, 27 -> AA.
func columnLabel(index int) (string, error) {
	if index < 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidColumnIndex, index)
	}
	label := ""
	for index > 0 {
		index--
		label = string(rune('A'+index%26)) + label
		index /= 26
	}
	return label, nil
}

// flattenColumn extracts the first cell of each returned row as a string,
// dropping empty cells.
func flattenColumn(rows [][]any) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		value := fmt.Sprint(row[0])
		if value == "" {
			continue
		}
		out = append(out, value)
	}
	return out
}

// stripHeader removes the header row when present.
func stripHeader(values []string, hasHeader bool) []string {
	if hasHeader && len(values) > 0 {
		return values[1:]
	}
	return values
}
