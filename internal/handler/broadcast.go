package handler

import "github.com/wartactics/server/internal/net"

// Broadcaster collects game messages during a frame and delivers them to
// every authenticated terminal after the frame's command replies.
type Broadcaster struct {
	store *net.SessionStore
	lines []string
}

func NewBroadcaster(store *net.SessionStore) *Broadcaster {
	return &Broadcaster{store: store}
}

// Post queues a line for all terminals.
func (b *Broadcaster) Post(line string) {
	b.lines = append(b.lines, line)
}

// Flush buffers the queued lines on each authenticated session.
func (b *Broadcaster) Flush() {
	if len(b.lines) == 0 {
		return
	}
	b.store.Each(func(s *net.Session) {
		if !s.Authed || s.IsClosed() {
			return
		}
		for _, line := range b.lines {
			s.Send(line)
		}
	})
	b.lines = b.lines[:0]
}
