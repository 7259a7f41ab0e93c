package terminal

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/wartactics/server/internal/core/system"
	"github.com/wartactics/server/internal/handler"
	"github.com/wartactics/server/internal/net"
	"github.com/wartactics/server/internal/tactics"
)

// OutputSystem delivers the frame's broadcasts and flushes every session.
type OutputSystem struct {
	store     *net.SessionStore
	broadcast *handler.Broadcaster
}

func NewOutputSystem(store *net.SessionStore, broadcast *handler.Broadcaster) *OutputSystem {
	return &OutputSystem{store: store, broadcast: broadcast}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.broadcast.Flush()
	s.store.Each(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

// NewRunner registers the input, clock and output systems for one game
// session and routes the session's messages to every terminal.
func NewRunner(server Sessions, game *tactics.Session, passwordHash string, maxLinesPerTick int, log *zap.Logger) (*coresys.Runner, *net.SessionStore) {
	store := net.NewSessionStore()
	broadcast := handler.NewBroadcaster(store)
	game.OnMessage(broadcast.Post)

	reg := handler.NewRegistry(log)
	handler.RegisterAll(reg)
	deps := &handler.Deps{
		Game:         game,
		Broadcast:    broadcast,
		PasswordHash: passwordHash,
		Log:          log,
	}

	r := coresys.NewRunner()
	r.Register(NewInputSystem(server, store, reg, deps, maxLinesPerTick, log))
	r.Register(NewClockSystem(game))
	r.Register(NewOutputSystem(store, broadcast))
	return r, store
}
