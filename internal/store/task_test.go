package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskFilterNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		filter       TaskFilter
		wantPage     int
		wantPageSize int
	}{
		{"zero value", TaskFilter{}, 1, DefaultPageSize},
		{"negative page", TaskFilter{Page: -3}, 1, DefaultPageSize},
		{"explicit values", TaskFilter{Page: 2, PageSize: 25}, 2, 25},
		{"oversized page size", TaskFilter{Page: 1, PageSize: 500}, 1, MaxPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Normalize()
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantPageSize, got.PageSize)
			// Filter fields pass through untouched
			assert.Equal(t, tt.filter.Status, got.Status)
			assert.Equal(t, tt.filter.Priority, got.Priority)
		})
	}
}
