// Package derive computes memoized views over store state.
//
// A Node exposes a value and a revision. The revision changes if and only if
// the value's identity changed, so consumers compare revisions instead of
// values. Derived nodes recompute only when one of their inputs reports a new
// revision; otherwise the previously computed value is returned as is.
package derive

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var derivationRecomputes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "derive_recomputes_total",
		Help: "Total number of derivation recomputations",
	},
	[]string{"view"},
)

// Revisioned reports the identity of a node's current value.
type Revisioned interface {
	Revision() uint64
}

// Node is a readable input to a derivation.
type Node[T any] interface {
	Revisioned
	Value() T
}

// Option configures a derived node.
type Option[T any] func(*Derived[T])

// WithEqual installs an equality cut-off: a recomputed value equal to the
// previous one keeps the previous value and revision, so dependents do not
// recompute.
func WithEqual[T any](eq func(a, b T) bool) Option[T] {
	return func(d *Derived[T]) {
		d.equal = eq
	}
}

// Derived is a memoized computation over declared inputs. compute must only
// read its inputs and must not have side effects.
type Derived[T any] struct {
	name    string
	inputs  []Revisioned
	compute func() T
	equal   func(a, b T) bool

	mu       sync.Mutex
	computed bool
	seen     []uint64
	value    T
	rev      uint64
	runs     int
}

func newDerived[T any](name string, inputs []Revisioned, compute func() T, opts []Option[T]) *Derived[T] {
	d := &Derived[T]{
		name:    name,
		inputs:  inputs,
		compute: compute,
		seen:    make([]uint64, len(inputs)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Derive1 derives a value from one input.
func Derive1[A, R any](name string, a Node[A], fn func(A) R, opts ...Option[R]) *Derived[R] {
	return newDerived(name, []Revisioned{a}, func() R {
		return fn(a.Value())
	}, opts)
}

// Derive2 derives a value from two inputs.
func Derive2[A, B, R any](name string, a Node[A], b Node[B], fn func(A, B) R, opts ...Option[R]) *Derived[R] {
	return newDerived(name, []Revisioned{a, b}, func() R {
		return fn(a.Value(), b.Value())
	}, opts)
}

// Derive3 derives a value from three inputs.
func Derive3[A, B, C, R any](name string, a Node[A], b Node[B], c Node[C], fn func(A, B, C) R, opts ...Option[R]) *Derived[R] {
	return newDerived(name, []Revisioned{a, b, c}, func() R {
		return fn(a.Value(), b.Value(), c.Value())
	}, opts)
}

func (d *Derived[T]) Name() string { return d.name }

func (d *Derived[T]) Value() T {
	v, _ := d.Read()
	return v
}

func (d *Derived[T]) Revision() uint64 {
	_, r := d.Read()
	return r
}

// Read returns the current value and revision, recomputing first if any
// input changed since the last computation.
func (d *Derived[T]) Read() (T, uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	changed := !d.computed
	for i, in := range d.inputs {
		r := in.Revision()
		if r != d.seen[i] {
			d.seen[i] = r
			changed = true
		}
	}
	if !changed {
		return d.value, d.rev
	}

	next := d.compute()
	d.runs++
	derivationRecomputes.WithLabelValues(d.name).Inc()
	if d.computed && d.equal != nil && d.equal(d.value, next) {
		return d.value, d.rev
	}
	d.computed = true
	d.value = next
	d.rev++
	return d.value, d.rev
}

// Computations returns how many times compute has run.
func (d *Derived[T]) Computations() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runs
}
