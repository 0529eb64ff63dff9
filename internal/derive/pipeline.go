package derive

import (
	"cmp"
	"slices"
	"strings"

	"github.com/dmehra2102/PostDeck/internal/domain"
)

// Comparator orders two records; negative means a sorts before b.
type Comparator[T any] func(a, b T) int

// ByInt orders records numerically on key.
func ByInt[T any](key func(T) int) Comparator[T] {
	return func(a, b T) int { return cmp.Compare(key(a), key(b)) }
}

// ByString orders records lexicographically on key.
func ByString[T any](key func(T) string) Comparator[T] {
	return func(a, b T) int { return strings.Compare(key(a), key(b)) }
}

// ByBool orders false before true.
func ByBool[T any](key func(T) bool) Comparator[T] {
	return func(a, b T) int {
		x, y := key(a), key(b)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	}
}

// Pipeline holds the per-record-type configuration of the
// filter, sort and paginate stages.
type Pipeline[T any] struct {
	// SearchFields returns the text matched by the search term.
	SearchFields func(T) []string
	// Category returns the value compared against FilterSpec.Category.
	Category func(T) string
	// Sorters maps a sort key to its comparator.
	Sorters map[string]Comparator[T]
}

// Filter applies the search term and category selector. With an empty term
// and the "all" category the input slice itself is returned.
func (p Pipeline[T]) Filter(items []T, spec domain.FilterSpec) []T {
	term := strings.ToLower(strings.TrimSpace(spec.Search))
	byCategory := spec.Category != "" && spec.Category != domain.CategoryAll && p.Category != nil
	bySearch := term != "" && p.SearchFields != nil
	if !byCategory && !bySearch {
		return items
	}

	out := make([]T, 0, len(items))
	for _, it := range items {
		if byCategory && p.Category(it) != spec.Category {
			continue
		}
		if bySearch && !matches(p.SearchFields(it), term) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matches(fields []string, lowerTerm string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lowerTerm) {
			return true
		}
	}
	return false
}

// Sort returns a sorted copy. The sort is stable, so records equal on the
// key keep their input order in both directions. Unknown keys leave the
// order unchanged.
func (p Pipeline[T]) Sort(items []T, key string, dir domain.SortDirection) []T {
	less, ok := p.Sorters[key]
	if !ok {
		return items
	}
	out := slices.Clone(items)
	if dir == domain.SortDescending {
		slices.SortStableFunc(out, func(a, b T) int { return -less(a, b) })
	} else {
		slices.SortStableFunc(out, less)
	}
	return out
}

// Visible runs filter then sort.
func (p Pipeline[T]) Visible(items []T, spec domain.FilterSpec) []T {
	return p.Sort(p.Filter(items, spec), spec.SortBy, spec.Direction)
}

// Paginate slices items by page. Pages below 1 are clamped to 1; a page past
// the end yields an empty, non-nil Items slice.
func Paginate[T any](items []T, page domain.Pagination) domain.PageResult[T] {
	page = page.Normalize()
	total := len(items)
	pages := domain.TotalPages(total, page.PageSize)

	// compare page indexes before multiplying so huge pages cannot overflow
	start, end := total, total
	if page.Page-1 < pages {
		start = (page.Page - 1) * page.PageSize
		end = min(start+page.PageSize, total)
	}

	window := items[start:end:end]
	if window == nil {
		window = []T{}
	}

	return domain.PageResult[T]{
		Items:      window,
		TotalItems: total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: pages,
		HasNext:    page.Page < pages,
		HasPrev:    page.Page > 1,
	}
}
