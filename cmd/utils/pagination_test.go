package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		pageSize   int
		rawPage    string
		wantPage   int
		wantPages  int
		wantOffset int
	}{
		{"first page by default", 25, 10, "", 1, 3, 0},
		{"explicit page", 25, 10, "2", 2, 3, 10},
		{"last page is remainder", 25, 10, "3", 3, 3, 20},
		{"out of range clamps to last", 25, 10, "99", 3, 3, 20},
		{"non-numeric falls back to first", 25, 10, "abc", 1, 3, 0},
		{"negative falls back to first", 25, 10, "-4", 1, 3, 0},
		{"zero falls back to first", 25, 10, "0", 1, 3, 0},
		{"exact multiple of page size", 30, 10, "3", 3, 3, 20},
		{"fewer records than one page", 4, 10, "1", 1, 1, 0},
		{"empty collection still has a page", 0, 10, "5", 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.total, tt.pageSize, tt.rawPage)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}
}

func TestPaginationNavigation(t *testing.T) {
	middle := NewPagination(50, 10, "3")
	assert.True(t, middle.HasPrev())
	assert.True(t, middle.HasNext())
	assert.Equal(t, 2, middle.PrevPage())
	assert.Equal(t, 4, middle.NextPage())

	first := NewPagination(50, 10, "1")
	assert.False(t, first.HasPrev())
	assert.Equal(t, 1, first.PrevPage())

	last := NewPagination(50, 10, "5")
	assert.False(t, last.HasNext())
	assert.Equal(t, 5, last.NextPage())
}

func TestPaginationLastPageSize(t *testing.T) {
	// For S records and page size N the final page holds the remainder.
	for _, total := range []int64{1, 9, 10, 11, 19, 20, 21} {
		p := NewPagination(total, 10, "999")
		onLast := total - int64(p.Offset())
		assert.GreaterOrEqual(t, onLast, int64(1), "total=%d", total)
		assert.LessOrEqual(t, onLast, int64(10), "total=%d", total)
	}
}
