package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered message bus. Messages emitted while a batch is
// being delivered land in the back buffer and are delivered by the next
// SwapBuffers/DispatchAll round, in emission order.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []envelope
	back     []envelope
	handlers map[reflect.Type][]func(any)
}

type envelope struct {
	t   reflect.Type
	msg any
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]envelope, 0, 16),
		back:     make([]envelope, 0, 16),
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Emit queues a message into the back buffer.
func Emit[T any](b *Bus, msg T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.back = append(b.back, envelope{t: t, msg: msg})
}

// Subscribe registers a typed handler for messages of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], func(m any) { fn(m.(T)) })
}

// SwapBuffers rotates back→front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers all front-buffer messages to their subscribed handlers
// and returns how many messages were delivered.
func (b *Bus) DispatchAll() int {
	n := len(b.front)
	for _, env := range b.front {
		for _, h := range b.handlers[env.t] {
			h(env.msg)
		}
	}
	b.front = b.front[:0]
	return n
}

// Pending reports whether messages are waiting in the back buffer.
func (b *Bus) Pending() bool { return len(b.back) > 0 }

// Drain runs swap/dispatch rounds until no message is pending or maxRounds
// is reached. Handlers may emit further messages; those are delivered in a
// later round. It returns the number of messages delivered.
func (b *Bus) Drain(maxRounds int) int {
	total := 0
	for round := 0; round < maxRounds && b.Pending(); round++ {
		b.SwapBuffers()
		total += b.DispatchAll()
	}
	return total
}
