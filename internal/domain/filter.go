package domain

import "math"

// CategoryAll disables the category filter.
const CategoryAll = "all"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type SortDirection int

const (
	SortAscending SortDirection = iota + 1
	SortDescending
)

func (d SortDirection) String() string {
	if d == SortDescending {
		return "desc"
	}
	return "asc"
}

// ParseSortDirection accepts "asc" and "desc"; anything else is ascending.
func ParseSortDirection(s string) SortDirection {
	if s == "desc" {
		return SortDescending
	}
	return SortAscending
}

// FilterSpec describes the active view constraints. It is replaced wholesale
// on every filter change.
type FilterSpec struct {
	Search    string
	Category  string
	SortBy    string
	Direction SortDirection
}

// DefaultFilter matches everything and sorts by id ascending.
func DefaultFilter() FilterSpec {
	return FilterSpec{
		Category:  CategoryAll,
		SortBy:    "id",
		Direction: SortAscending,
	}
}

// Normalize fills empty fields with defaults.
func (f FilterSpec) Normalize() FilterSpec {
	if f.Category == "" {
		f.Category = CategoryAll
	}
	if f.SortBy == "" {
		f.SortBy = "id"
	}
	if f.Direction != SortDescending {
		f.Direction = SortAscending
	}
	return f
}

type Pagination struct {
	Page     int
	PageSize int
}

func DefaultPagination() Pagination {
	return Pagination{Page: 1, PageSize: DefaultPageSize}
}

// Normalize clamps the page to 1 and resets an out-of-range page size.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		p.PageSize = DefaultPageSize
	}
	return p
}

// PageResult contains paginated results
type PageResult[T any] struct {
	Items      []T
	TotalItems int
	Page       int
	PageSize   int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total, pageSize int) int {
	if pageSize < 1 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}
