// Package terminal drives the operator terminals frame by frame: drain
// input, advance the game session, flush output.
package terminal

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/wartactics/server/internal/core/system"
	"github.com/wartactics/server/internal/handler"
	"github.com/wartactics/server/internal/net"
)

// Sessions is the side of net.Server the input system consumes.
type Sessions interface {
	NewSessions() <-chan *net.Session
	DeadSessions() <-chan uint64
	NotifyDead(id uint64)
}

// InputSystem accepts new terminals, drops dead ones, and dispatches up to
// maxPerTick lines from each session.
type InputSystem struct {
	server     Sessions
	store      *net.SessionStore
	registry   *handler.Registry
	deps       *handler.Deps
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(server Sessions, store *net.SessionStore, registry *handler.Registry, deps *handler.Deps, maxPerTick int, log *zap.Logger) *InputSystem {
	if maxPerTick <= 0 {
		maxPerTick = 16
	}
	return &InputSystem{
		server:     server,
		store:      store,
		registry:   registry,
		deps:       deps,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	s.accept()
	s.reap()

	for id, sess := range s.store.Raw() {
		if sess.IsClosed() {
			s.log.Info("terminal disconnected", zap.Uint64("session", id))
			s.server.NotifyDead(id)
			s.store.Remove(id)
			continue
		}
		s.drain(sess)
	}
}

func (s *InputSystem) drain(sess *net.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case line := <-sess.InQueue:
			s.log.Debug("terminal input", zap.Uint64("session", sess.ID), zap.String("line", line))
			handler.HandleLine(sess, line, s.registry, s.deps)
		default:
			return
		}
	}
}

func (s *InputSystem) accept() {
	for {
		select {
		case sess := <-s.server.NewSessions():
			s.store.Add(sess)
			handler.Greet(sess, s.deps)
		default:
			return
		}
	}
}

func (s *InputSystem) reap() {
	for {
		select {
		case id := <-s.server.DeadSessions():
			s.store.Remove(id)
		default:
			return
		}
	}
}
