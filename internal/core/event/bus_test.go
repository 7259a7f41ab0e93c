package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type ping struct{ n int }
type pong struct{ n int }

func TestBus_DeliversInEmissionOrder(t *testing.T) {
	b := NewBus()
	var got []any
	Subscribe(b, func(p ping) { got = append(got, p) })
	Subscribe(b, func(p pong) { got = append(got, p) })

	Emit(b, ping{1})
	Emit(b, pong{2})
	Emit(b, ping{3})

	assert.True(t, b.Pending())
	b.SwapBuffers()
	assert.False(t, b.Pending())
	assert.Equal(t, 3, b.DispatchAll())
	assert.Equal(t, []any{ping{1}, pong{2}, ping{3}}, got)
}

func TestBus_DrainFollowsReplies(t *testing.T) {
	b := NewBus()
	var pongs []int
	Subscribe(b, func(p ping) {
		if p.n < 3 {
			Emit(b, pong{p.n})
		}
	})
	Subscribe(b, func(p pong) {
		pongs = append(pongs, p.n)
		Emit(b, ping{p.n + 1})
	})

	Emit(b, ping{0})
	delivered := b.Drain(100)
	assert.Equal(t, []int{0, 1, 2}, pongs)
	assert.Equal(t, 7, delivered)
	assert.False(t, b.Pending())
}

func TestBus_DrainStopsAtMaxRounds(t *testing.T) {
	b := NewBus()
	Subscribe(b, func(p ping) { Emit(b, ping{p.n + 1}) })
	Emit(b, ping{0})

	assert.Equal(t, 5, b.Drain(5))
	assert.True(t, b.Pending())
}

func TestBus_UnsubscribedMessagesAreDropped(t *testing.T) {
	b := NewBus()
	Emit(b, pong{1})
	assert.Equal(t, 1, b.Drain(1))
	assert.False(t, b.Pending())
}
