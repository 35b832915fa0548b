// Package seqlist provides a small generic, append-only growable
// sequence. It is the typed re-architecture spec.md §9 calls for of the
// source's untyped pointer_list: a growable container used only while
// configuration is being parsed. Once configuration parsing has finished
// accumulating entries, Snapshot hands callers an independent, immutable
// slice — there is no shared mutable backing array between the list and
// its snapshots.
package seqlist

// List is a generic dynamic sequence, analogous to pointer_list_t but
// type-safe and without the void* indirection. The zero value is ready
// to use.
type List[T any] struct {
	items []T
}

// Append adds v to the end of the list.
func (l *List[T]) Append(v T) {
	l.items = append(l.items, v)
}

// Len returns the number of elements currently in the list.
func (l *List[T]) Len() int {
	return len(l.items)
}

// Get returns the element at index i.
func (l *List[T]) Get(i int) T {
	return l.items[i]
}

// Snapshot returns a copy of the list's contents as a plain slice, safe
// to hand to readers that must never observe further appends.
func (l *List[T]) Snapshot() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}
