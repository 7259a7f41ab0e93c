// Package ring provides a fixed-capacity FIFO that evicts its oldest entry
// on overflow. Logs, situation reports and order history use it so their
// length never exceeds the configured window.
package ring

// Buffer is a generic fixed-capacity ring buffer. Not safe for concurrent use;
// each buffer belongs to exactly one state machine context.
type Buffer[T any] struct {
	items []T
	head  int // index of the oldest element
	size  int
}

// New returns an empty buffer holding at most capacity items.
// A capacity below 1 is treated as 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends items, evicting the oldest entries once the buffer is full.
// It returns how many entries were evicted.
func (b *Buffer[T]) Push(items ...T) int {
	evicted := 0
	for _, it := range items {
		if b.size < len(b.items) {
			b.items[(b.head+b.size)%len(b.items)] = it
			b.size++
			continue
		}
		b.items[b.head] = it
		b.head = (b.head + 1) % len(b.items)
		evicted++
	}
	return evicted
}

func (b *Buffer[T]) Len() int { return b.size }

// Slice copies the contents out, oldest first.
func (b *Buffer[T]) Slice() []T {
	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// Clear empties the buffer without shrinking it.
func (b *Buffer[T]) Clear() {
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.head = 0
	b.size = 0
}
