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


package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnLabel(t *testing.T) {
	testCases := []struct {
		index    int
		expected string
	}{
		{1, "A"},
		{2, "B"},
		{26, "Z"},
		{27, "AA"},
		{28, "AB"},
		{52, "AZ"},
		{53, "BA"},
		{702, "ZZ"},
		{703, "AAA"},
	}

	for _, tc := range testCases {
		label, err := columnLabel(tc.index)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, label, "index %d", tc.index)
	}
}

func TestColumnLabel_Invalid(t *testing.T) {
	for _, index := range []int{0, -1} {
		_, err := columnLabel(index)
		assert.ErrorIs(t, err, ErrInvalidColumnIndex, "index %d", index)
	}
}

func TestFlattenColumn(t *testing.T) {
	rows := [][]any{
		{"Category"},
		{"cat1"},
		{}, // row with no cells
		{"cat2", "ignored second cell"},
		{""}, // empty cell
		{"cat3"},
	}

	assert.Equal(t, []string{"Category", "cat1", "cat2", "cat3"}, flattenColumn(rows))
}

func TestStripHeader(t *testing.T) {
	values := []string{"Category", "cat1", "cat2"}

	assert.Equal(t, []string{"cat1", "cat2"}, stripHeader(values, true))
	assert.Equal(t, values, stripHeader(values, false))
	assert.Empty(t, stripHeader(nil, true))
	assert.Empty(t, stripHeader([]string{"only header"}, true))
}

func TestNewGoogleReader_RequiresService(t *testing.T) {
	_, err := NewGoogleReader(nil)
	assert.ErrorIs(t, err, ErrServiceRequired)
}
