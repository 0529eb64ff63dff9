package store

import (
	"slices"

	"github.com/dmehra2102/PostDeck/internal/domain"
)

// Entity is a comparable domain record held in a normalized collection.
type Entity interface {
	domain.Record
	comparable
}

// Collection is a normalized, copy-on-write set of records keyed by ID.
// Insertion order is preserved; the zero value is an empty collection.
type Collection[T Entity] struct {
	ids  []int
	byID map[int]T
}

func NewCollection[T Entity](records ...T) Collection[T] {
	return Collection[T]{}.Upsert(records...)
}

func (c Collection[T]) Len() int { return len(c.ids) }

func (c Collection[T]) Get(id int) (T, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// Items returns the records in insertion order.
func (c Collection[T]) Items() []T {
	out := make([]T, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.byID[id])
	}
	return out
}

func (c Collection[T]) IDs() []int {
	return slices.Clone(c.ids)
}

// Upsert returns a collection with records inserted or replaced by ID. The
// receiver is left untouched. When nothing changes the receiver is returned.
func (c Collection[T]) Upsert(records ...T) Collection[T] {
	var next Collection[T]
	copied := false
	for _, r := range records {
		id := r.RecordID()
		if old, ok := c.byID[id]; ok && old == r && !copied {
			continue
		}
		if !copied {
			next = c.clone()
			copied = true
		}
		if _, ok := next.byID[id]; !ok {
			next.ids = append(next.ids, id)
		}
		next.byID[id] = r
	}
	if !copied {
		return c
	}
	return next
}

// Remove returns a collection without the record and whether it was present.
func (c Collection[T]) Remove(id int) (Collection[T], bool) {
	if _, ok := c.byID[id]; !ok {
		return c, false
	}
	next := c.clone()
	delete(next.byID, id)
	next.ids = slices.DeleteFunc(next.ids, func(v int) bool { return v == id })
	return next, true
}

// Equal compares records and order.
func (c Collection[T]) Equal(o Collection[T]) bool {
	if !slices.Equal(c.ids, o.ids) {
		return false
	}
	for _, id := range c.ids {
		if c.byID[id] != o.byID[id] {
			return false
		}
	}
	return true
}

func (c Collection[T]) clone() Collection[T] {
	next := Collection[T]{
		ids:  slices.Clone(c.ids),
		byID: make(map[int]T, len(c.byID)+1),
	}
	for id, r := range c.byID {
		next.byID[id] = r
	}
	return next
}
