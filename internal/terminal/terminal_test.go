package terminal

import (
	"math/rand"
	gonet "net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wartactics/server/internal/logic"
	"github.com/wartactics/server/internal/loop"
	"github.com/wartactics/server/internal/net"
	"github.com/wartactics/server/internal/tactics"
	"github.com/wartactics/server/internal/world"
)

type fakeServer struct {
	newCh  chan *net.Session
	deadCh chan uint64
	dead   []uint64
}

func newFakeServer() *fakeServer {
	return &fakeServer{newCh: make(chan *net.Session, 4), deadCh: make(chan uint64, 4)}
}

func (f *fakeServer) NewSessions() <-chan *net.Session { return f.newCh }
func (f *fakeServer) DeadSessions() <-chan uint64      { return f.deadCh }
func (f *fakeServer) NotifyDead(id uint64)             { f.dead = append(f.dead, id) }

func outpost() (*world.World, error) {
	w := world.New()
	if err := w.AddTerrain(world.CreateTerrain("Hill Crest", world.Ridge)); err != nil {
		return nil, err
	}
	if err := w.Spawn(world.CreateUnit(world.Infantry, "Alpha Squad", "hill-crest", world.Friendly)); err != nil {
		return nil, err
	}
	if err := w.AddTerrain(world.CreateTerrain("Dark Forest", world.Forest)); err != nil {
		return nil, err
	}
	if err := w.Spawn(world.CreateUnit(world.Armor, "Iron", "dark-forest", world.Hostile)); err != nil {
		return nil, err
	}
	return w, nil
}

func newGame(realTime bool) *tactics.Session {
	opts := tactics.Options{Name: "Outpost", Loop: loop.DefaultConfig(), Logic: logic.DefaultConfig()}
	opts.Loop.NewWorld = outpost
	opts.Loop.RealTime = realTime
	opts.Loop.TickDuration = time.Second
	opts.Logic.AdaptChance = 0
	opts.Logic.Rand = rand.New(rand.NewSource(3))
	return tactics.New(opts, zap.NewNop())
}

func drainOut(sess *net.Session) []string {
	var out []string
	for {
		select {
		case l := <-sess.OutQueue:
			out = append(out, l)
		default:
			return out
		}
	}
}

func TestRunner_FrameRoundTrip(t *testing.T) {
	srv := newFakeServer()
	game := newGame(true)
	r, store := NewRunner(srv, game, "", 8, zap.NewNop())

	client, conn := gonet.Pipe()
	defer client.Close()
	sess := net.NewSession(conn, 7, net.Options{OutQueueSize: 256}, zap.NewNop())
	srv.newCh <- sess

	r.Tick(50 * time.Millisecond)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, []string{"WARTACTICS command terminal", "Type 'help' for commands."}, drainOut(sess))

	sess.InQueue <- "start"
	r.Tick(50 * time.Millisecond)
	out := drainOut(sess)
	require.NotEmpty(t, out)
	assert.Equal(t, "Mission starting", out[0])
	assert.Contains(t, out, `Mission "Outpost" initialized: 2 units deployed`)

	// Init delay, then two real-time ticks of one second each.
	for i := 0; i < 60; i++ {
		r.Tick(50 * time.Millisecond)
	}
	assert.Equal(t, "running.realTime", game.Loop().State().String())
	assert.Equal(t, 2, game.Loop().Snapshot().CurrentTick)

	var sitreps int
	for _, l := range drainOut(sess) {
		if strings.Contains(l, "] SITREP: ") {
			sitreps++
		}
	}
	assert.Equal(t, 2, sitreps)
}

func TestInputSystem_RespectsLineLimit(t *testing.T) {
	srv := newFakeServer()
	game := newGame(false)
	r, _ := NewRunner(srv, game, "", 2, zap.NewNop())

	client, conn := gonet.Pipe()
	defer client.Close()
	sess := net.NewSession(conn, 1, net.Options{InQueueSize: 8, OutQueueSize: 256}, zap.NewNop())
	srv.newCh <- sess
	r.Tick(0)
	drainOut(sess)

	for i := 0; i < 3; i++ {
		sess.InQueue <- "status"
	}
	r.Tick(0)
	assert.Len(t, sess.InQueue, 1)
	r.Tick(0)
	assert.Empty(t, sess.InQueue)
}

func TestInputSystem_RemovesClosedSessions(t *testing.T) {
	srv := newFakeServer()
	r, store := NewRunner(srv, newGame(false), "", 4, zap.NewNop())

	client, conn := gonet.Pipe()
	defer client.Close()
	sess := net.NewSession(conn, 9, net.Options{}, zap.NewNop())
	srv.newCh <- sess
	r.Tick(0)
	require.Equal(t, 1, store.Len())

	sess.InQueue <- "quit"
	r.Tick(0)
	assert.True(t, sess.IsClosed())
	r.Tick(0)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, []uint64{9}, srv.dead)
}
