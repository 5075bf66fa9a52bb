package utils

import (
	"strconv"
)

// PageSize is the fixed number of posts per page.
const PageSize = 10

// Pagination slices an ordered result set into fixed-size pages. The page
// index is 1-based; a missing, non-numeric or out-of-range value falls back
// to the nearest valid page instead of erroring.
type Pagination struct {
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// NewPagination clamps the raw page parameter against the collection size.
// An empty collection still has one (empty) page so templates always have
// a current page to point at.
func NewPagination(total int64, pageSize int, rawPage string) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	if totalPages < 1 {
		totalPages = 1
	}

	page, err := strconv.Atoi(rawPage)
	if err != nil || page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset is the index of the first record on the current page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

func (p Pagination) PrevPage() int {
	if p.HasPrev() {
		return p.Page - 1
	}
	return p.Page
}

func (p Pagination) NextPage() int {
	if p.HasNext() {
		return p.Page + 1
	}
	return p.Page
}
