package tactics

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wartactics/server/internal/logic"
	"github.com/wartactics/server/internal/loop"
	"github.com/wartactics/server/internal/mission"
	"github.com/wartactics/server/internal/orders"
	"github.com/wartactics/server/internal/persist"
	"github.com/wartactics/server/internal/scripting"
	"github.com/wartactics/server/internal/world"
)

func skirmish() (*world.World, error) {
	w := world.New()
	for _, t := range []*world.TerrainNode{
		world.CreateTerrain("Alpha Ridge", world.Ridge, "valley-beta"),
		world.CreateTerrain("Valley Beta", world.Valley, "alpha-ridge"),
		world.CreateTerrain("Dark Forest", world.Forest),
	} {
		if err := w.AddTerrain(t); err != nil {
			return nil, err
		}
	}
	if err := w.Spawn(world.CreateUnit(world.Infantry, "Alpha Squad", "alpha-ridge", world.Friendly)); err != nil {
		return nil, err
	}
	if err := w.Spawn(world.CreateUnit(world.Infantry, "Red Squad", "dark-forest", world.Hostile)); err != nil {
		return nil, err
	}
	return w, nil
}

type fakeScript struct {
	onStart []scripting.Injection
	onTick  map[int][]scripting.Injection
	ticks   []scripting.TickInfo
}

func (f *fakeScript) OnStart(scripting.MissionInfo) []scripting.Injection { return f.onStart }

func (f *fakeScript) OnTick(info scripting.TickInfo) []scripting.Injection {
	f.ticks = append(f.ticks, info)
	return f.onTick[info.Tick]
}

type fakeRecorder struct {
	begun    []string
	orders   []persist.OrderRow
	sitreps  []persist.SitRepRow
	finished []string
}

func (f *fakeRecorder) Begin(name, condition string) error {
	f.begun = append(f.begun, name+"/"+condition)
	return nil
}

func (f *fakeRecorder) Tick(orders []persist.OrderRow, sitrep persist.SitRepRow) {
	f.orders = append(f.orders, orders...)
	f.sitreps = append(f.sitreps, sitrep)
}

func (f *fakeRecorder) Finish(outcome, _ string, _, _ int) {
	f.finished = append(f.finished, outcome)
}

func newSession(t *testing.T, mutate func(*Options)) (*Session, *[]string) {
	t.Helper()
	opts := Options{
		Name:  "Nightfall",
		Loop:  loop.DefaultConfig(),
		Logic: logic.DefaultConfig(),
	}
	opts.Loop.NewWorld = skirmish
	opts.Logic.AdaptChance = 0
	opts.Logic.Rand = rand.New(rand.NewSource(7))
	if mutate != nil {
		mutate(&opts)
	}
	s := New(opts, zap.NewNop())
	var lines []string
	s.OnMessage(func(l string) { lines = append(lines, l) })
	return s, &lines
}

func start(t *testing.T, s *Session) {
	t.Helper()
	require.True(t, s.SendLoop(loop.StartGame{}))
	s.Advance(loop.DefaultInitDelay)
	require.Equal(t, "running.turnBased", s.Loop().State().String())
}

func tick(s *Session) {
	s.SendLoop(loop.AdvanceTick{})
	s.Advance(loop.DefaultTickSettle)
}

func hasPrefix(lines []string, prefix string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}

func TestSession_OrderReachesWorldOnTick(t *testing.T) {
	s, lines := newSession(t, nil)
	start(t, s)
	assert.Equal(t, logic.Active, s.Logic().State())

	o, err := s.Issue("Move Alpha Squad to Valley Beta")
	require.NoError(t, err)
	assert.Equal(t, "valley-beta", o.Destination)
	assert.Equal(t, logic.ExecutingOrder, s.Logic().State())
	require.Len(t, s.Snapshot().Loop.PendingOrders, 1)

	alpha, _ := s.Loop().World().UnitByName("Alpha Squad")
	assert.Equal(t, "alpha-ridge", alpha.Zone)

	s.Advance(logic.ExecuteDelay)
	assert.Contains(t, *lines, "Order confirmed: move Alpha Squad -> valley-beta")

	tick(s)
	assert.Equal(t, "valley-beta", alpha.Zone)
	snap := s.Snapshot()
	require.Len(t, snap.Loop.CompletedOrders, 1)
	assert.Equal(t, orders.StatusExecuted, snap.Loop.CompletedOrders[0].Status)
	assert.Equal(t, o.ID, snap.Loop.CompletedOrders[0].Order.ID)
	assert.Equal(t, 1, snap.Logic.Tick)
	assert.True(t, hasPrefix(*lines, "[0000Z] SITREP:"))
}

func TestSession_IssueErrors(t *testing.T) {
	s, _ := newSession(t, nil)

	_, err := s.Issue("Move Alpha Squad to Valley Beta")
	assert.ErrorIs(t, err, ErrNotRunning)

	start(t, s)
	_, err = s.Issue("dance the tango")
	assert.ErrorIs(t, err, ErrNotRecognized)
}

func TestSession_InvalidOrderReported(t *testing.T) {
	s, lines := newSession(t, nil)
	start(t, s)

	_, err := s.Issue("Move Ghost Squad to Valley Beta")
	require.NoError(t, err)
	assert.Contains(t, *lines, `Order failed: move Ghost Squad -> valley-beta (Unit "Ghost Squad" not found)`)
	assert.Empty(t, s.Snapshot().Loop.PendingOrders)
}

func TestSession_OrdersQueueWhilePaused(t *testing.T) {
	s, _ := newSession(t, nil)
	start(t, s)

	require.True(t, s.SendLoop(loop.PauseGame{}))
	_, err := s.Issue("Move Alpha Squad to Valley Beta")
	require.NoError(t, err)
	s.Advance(logic.ExecuteDelay)

	snap := s.Snapshot()
	assert.Len(t, snap.Loop.PendingOrders, 1)
	assert.Contains(t, snap.Loop.Logs, "Order queued while game is paused")
	assert.False(t, s.SendLoop(loop.AdvanceTick{}))

	require.True(t, s.SendLoop(loop.ResumeGame{}))
	tick(s)
	snap = s.Snapshot()
	require.Len(t, snap.Loop.CompletedOrders, 1)
	assert.Empty(t, snap.Loop.PendingOrders)
}

func TestSession_LogicVerdictEndsLoop(t *testing.T) {
	rec := &fakeRecorder{}
	s, lines := newSession(t, func(o *Options) {
		o.Loop.VictoryCondition = mission.Survival
		o.Loop.SurvivalTurns = 100
		o.Logic.VictoryCondition = mission.Elimination
		o.Recorder = rec
	})
	start(t, s)
	tick(s)
	assert.Equal(t, "running.turnBased", s.Loop().State().String())

	s.Loop().World().RemoveFaction(world.Hostile)
	tick(s)

	assert.Equal(t, loop.Victory, s.Loop().State().Phase)
	assert.Equal(t, "mission reported complete", s.Loop().Outcome().Reason)
	assert.Equal(t, mission.Victory, s.Logic().Verdict().Outcome)
	assert.Equal(t, []string{"victory"}, rec.finished)
	assert.True(t, hasPrefix(*lines, "MISSION ACCOMPLISHED"))
}

func TestSession_LoopDetectsDefeat(t *testing.T) {
	s, lines := newSession(t, nil)
	start(t, s)

	s.Loop().World().RemoveFaction(world.Friendly)
	tick(s)
	assert.Equal(t, loop.Defeat, s.Loop().State().Phase)
	assert.Contains(t, *lines, "MISSION FAILED: all friendly units lost (0 turns, 1 ticks)")
}

func TestSession_ScriptInjections(t *testing.T) {
	script := &fakeScript{
		onStart: []scripting.Injection{{Kind: scripting.InjectSitRep, Content: "Briefing: hold the ridge"}},
		onTick: map[int][]scripting.Injection{
			1: {
				{Kind: scripting.InjectIntel, Confidence: 90, Content: "Armor in the forest", Location: "dark-forest"},
				{Kind: scripting.InjectJam},
			},
			2: {{Kind: scripting.InjectRestore}, {Kind: scripting.InjectSitRep, Unit: "Alpha Squad"}},
		},
	}
	s, lines := newSession(t, func(o *Options) { o.Script = script })
	start(t, s)
	assert.Contains(t, *lines, "Briefing: hold the ridge")

	tick(s)
	snap := s.Snapshot().Logic
	assert.Equal(t, logic.CommJammed, snap.Comms)
	require.Len(t, snap.Intel, 1)
	assert.Equal(t, logic.SourceSigint, snap.Intel[0].Source)
	assert.Contains(t, *lines, "[0000Z] [CONFIRMED] Armor in the forest")

	require.Len(t, script.ticks, 1)
	assert.Equal(t, 1, script.ticks[0].Friendly)
	assert.Equal(t, 1, script.ticks[0].Hostile)
	assert.Equal(t, "clear", script.ticks[0].Comms)
	assert.Len(t, script.ticks[0].Units, 2)

	tick(s)
	assert.Equal(t, logic.CommClear, s.Logic().Comms())
	assert.True(t, hasPrefix(*lines, "[0000Z] Alpha Squad: Operational."))
}

func TestSession_RecorderSeesTicksAndOrders(t *testing.T) {
	rec := &fakeRecorder{}
	s, _ := newSession(t, func(o *Options) { o.Recorder = rec })
	start(t, s)
	assert.Equal(t, []string{"Nightfall/elimination"}, rec.begun)

	_, err := s.Issue("Move Alpha Squad to Valley Beta before 0600Z")
	require.NoError(t, err)
	s.Advance(logic.ExecuteDelay)
	tick(s)
	tick(s)

	require.Len(t, rec.sitreps, 2)
	assert.Equal(t, 2, rec.sitreps[1].Tick)
	require.Len(t, rec.orders, 1)
	assert.Equal(t, "Alpha Squad", rec.orders[0].Unit)
	assert.Equal(t, "0600Z", rec.orders[0].TimeConstraint)
	assert.Equal(t, "executed", rec.orders[0].Status)
}

func TestSession_RealTimeTicksInterleave(t *testing.T) {
	s, _ := newSession(t, func(o *Options) {
		o.Loop.RealTime = true
		o.Loop.TickDuration = time.Second
	})
	require.True(t, s.SendLoop(loop.StartGame{}))
	s.Advance(loop.DefaultInitDelay)
	assert.Equal(t, "running.realTime", s.Loop().State().String())

	s.Advance(3*time.Second + 500*time.Millisecond)
	assert.Equal(t, 3, s.Snapshot().Loop.CurrentTick)
	assert.Equal(t, 3, s.Snapshot().Logic.Tick)
	assert.Equal(t, "0000Z", s.Snapshot().Logic.MissionTime)
}

func TestSession_ResetDetachesLogic(t *testing.T) {
	s, lines := newSession(t, nil)
	start(t, s)
	require.True(t, s.SendLoop(loop.ResetGame{}))
	assert.Equal(t, logic.Idle, s.Logic().State())
	assert.Nil(t, s.Logic().World())
	assert.Contains(t, *lines, "Game reset")
}
