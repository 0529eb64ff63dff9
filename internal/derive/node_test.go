package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// cell is a mutable test input.
type cell[T any] struct {
	v   T
	rev uint64
}

func (c *cell[T]) Value() T         { return c.v }
func (c *cell[T]) Revision() uint64 { return c.rev }

func (c *cell[T]) set(v T) {
	c.v = v
	c.rev++
}

func TestDerivedMemoizes(t *testing.T) {
	items := &cell[[]int]{v: []int{1, 2, 3}}
	sum := Derive1("sum", Node[[]int](items), func(xs []int) []int {
		total := 0
		for _, x := range xs {
			total += x
		}
		return []int{total}
	})

	first := sum.Value()
	second := sum.Value()
	assert.Equal(t, []int{6}, first)
	assert.Same(t, &first[0], &second[0], "unchanged inputs must return the same value")
	assert.Equal(t, 1, sum.Computations())

	items.set([]int{4})
	assert.Equal(t, []int{4}, sum.Value())
	assert.Equal(t, 2, sum.Computations())
}

func TestDerivedPropagatesOnlyThroughChangedNodes(t *testing.T) {
	left := &cell[int]{v: 1}
	right := &cell[int]{v: 10}

	double := Derive1("double", Node[int](left), func(v int) int { return v * 2 })
	negate := Derive1("negate", Node[int](right), func(v int) int { return -v })
	total := Derive2("total", Node[int](double), Node[int](negate), func(a, b int) int { return a + b })

	assert.Equal(t, -8, total.Value())

	left.set(5)
	assert.Equal(t, 0, total.Value())
	assert.Equal(t, 2, double.Computations())
	assert.Equal(t, 1, negate.Computations(), "sibling with unchanged input must not recompute")
	assert.Equal(t, 2, total.Computations())
}

func TestDerivedEqualityCutoff(t *testing.T) {
	in := &cell[int]{v: 3}
	parity := Derive1("parity", Node[int](in), func(v int) bool { return v%2 == 0 },
		WithEqual(func(a, b bool) bool { return a == b }))
	label := Derive1("label", Node[bool](parity), func(even bool) string {
		if even {
			return "even"
		}
		return "odd"
	})

	assert.Equal(t, "odd", label.Value())
	rev := parity.Revision()

	in.set(5)
	assert.Equal(t, "odd", label.Value())
	assert.Equal(t, rev, parity.Revision())
	assert.Equal(t, 2, parity.Computations())
	assert.Equal(t, 1, label.Computations())
}

func TestSelectPicksOnRevisionChange(t *testing.T) {
	type snap struct {
		rev   uint64
		items []string
	}
	current := snap{rev: 1, items: []string{"a"}}
	picks := 0
	node := Select(func() snap { return current }, func(s snap) uint64 { return s.rev }, func(s snap) []string {
		picks++
		return s.items
	})

	node.Value()
	node.Value()
	assert.Equal(t, 1, picks)

	current = snap{rev: 2, items: []string{"a", "b"}}
	assert.Equal(t, []string{"a", "b"}, node.Value())
	assert.Equal(t, 2, picks)
}
