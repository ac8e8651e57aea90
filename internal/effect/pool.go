// SPDX-License-Identifier: MIT
package effect

// Pool is a fixed-capacity collection that never grows. Add on a full pool
// is rejected rather than evicting.
type Pool[T any] struct {
	items []T
}

func NewPool[T any](capacity int) *Pool[T] {
	return &Pool[T]{items: make([]T, 0, capacity)}
}

// Add appends v, reporting false when the pool is full.
func (p *Pool[T]) Add(v T) bool {
	if len(p.items) == cap(p.items) {
		return false
	}
	p.items = append(p.items, v)
	return true
}

func (p *Pool[T]) Len() int { return len(p.items) }
func (p *Pool[T]) Cap() int { return cap(p.items) }

// Items exposes the live elements for in-place updates.
func (p *Pool[T]) Items() []T {
	return p.items
}

// Retain keeps the elements for which keep returns true, preserving order.
func (p *Pool[T]) Retain(keep func(*T) bool) {
	n := 0
	for i := range p.items {
		if keep(&p.items[i]) {
			p.items[n] = p.items[i]
			n++
		}
	}
	clear(p.items[n:])
	p.items = p.items[:n]
}

func (p *Pool[T]) Reset() {
	clear(p.items)
	p.items = p.items[:0]
}
