package logic

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wartactics/server/internal/core/event"
	"github.com/wartactics/server/internal/mission"
	"github.com/wartactics/server/internal/orders"
	"github.com/wartactics/server/internal/world"
)

// theater: Alpha Squad and Eagle Recon (friendly) on a ridge linked to a
// valley held by Red Squad (hostile).
func theater(t *testing.T) *world.World {
	t.Helper()
	w := world.New()
	for _, n := range []*world.TerrainNode{
		world.CreateTerrain("Alpha Ridge", world.Ridge, "valley-beta"),
		world.CreateTerrain("Valley Beta", world.Valley, "alpha-ridge"),
	} {
		require.NoError(t, w.AddTerrain(n))
	}
	require.NoError(t, w.Spawn(world.CreateUnit(world.Infantry, "Alpha Squad", "alpha-ridge", world.Friendly)))
	require.NoError(t, w.Spawn(world.CreateUnit(world.Recon, "Eagle Recon", "alpha-ridge", world.Friendly)))
	require.NoError(t, w.Spawn(world.CreateUnit(world.Infantry, "Red Squad", "valley-beta", world.Hostile)))
	return w
}

type recorder struct {
	completed []OrderCompleted
	failed    []OrderFailed
	sitreps   []SitRep
	verdicts  []Verdict
}

func newMachine(t *testing.T, w *world.World, mutate func(*Config)) (*Machine, *event.Bus, *recorder) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.AdaptChance = 0
	cfg.Rand = rand.New(rand.NewSource(1))
	if mutate != nil {
		mutate(&cfg)
	}
	bus := event.NewBus()
	rec := &recorder{}
	event.Subscribe(bus, func(e OrderCompleted) { rec.completed = append(rec.completed, e) })
	event.Subscribe(bus, func(e OrderFailed) { rec.failed = append(rec.failed, e) })
	event.Subscribe(bus, func(e SitRepFiled) { rec.sitreps = append(rec.sitreps, e.SitRep) })
	event.Subscribe(bus, func(e Verdict) { rec.verdicts = append(rec.verdicts, e) })

	m := New(cfg, zap.NewNop(), bus)
	if w != nil {
		require.True(t, m.Send(WorldReady{World: w}))
	}
	return m, bus, rec
}

func moveOrder(unit, dest string) orders.Order {
	return orders.Order{Unit: unit, Action: orders.Move, Destination: dest}
}

func loopTick(w *world.World, n int, clock mission.Clock) GameLoopTick {
	return GameLoopTick{World: w, Tick: n, MissionTimer: n, TickDuration: 5 * time.Second, MissionTime: clock}
}

func contents(reps []SitRep) []string {
	out := make([]string, len(reps))
	for i, r := range reps {
		out[i] = r.Content
	}
	return out
}

func TestMachine_AttachTracksUnits(t *testing.T) {
	m, _, _ := newMachine(t, theater(t), nil)
	assert.Equal(t, Active, m.State())

	snap := m.Snapshot()
	require.Len(t, snap.Supplies, 3)
	assert.Equal(t, InitialSupplies("0000Z"), snap.Supplies["Alpha Squad"])
	assert.Equal(t, Cautious, snap.Personalities["Eagle Recon"].Type)
	assert.Equal(t, Reliable, snap.Personalities["Alpha Squad"].Type)
	require.Len(t, snap.Recon, 1)
	assert.Equal(t, ReconScout, snap.Recon[0].Type)
	assert.Equal(t, "alpha-ridge", snap.Recon[0].Location)
	assert.Equal(t, CommClear, snap.Comms)
}

func TestMachine_IdleWaitsForTick(t *testing.T) {
	w := theater(t)
	m, _, _ := newMachine(t, nil, nil)
	assert.Equal(t, Idle, m.State())
	assert.False(t, m.Send(ValidateOrder{Order: moveOrder("Alpha Squad", "valley-beta")}))

	require.True(t, m.Send(loopTick(w, 1, mission.Clock{})))
	assert.Equal(t, Active, m.State())
	assert.Same(t, w, m.World())
}

func TestMachine_ValidOrderExecutes(t *testing.T) {
	w := theater(t)
	m, bus, rec := newMachine(t, w, nil)

	require.True(t, m.Send(ValidateOrder{Order: moveOrder("Alpha Squad", "valley-beta")}))
	assert.Equal(t, ExecutingOrder, m.State())
	cur, ok := m.CurrentOrder()
	require.True(t, ok)
	assert.NotEmpty(t, cur.ID)

	u, _ := w.UnitByName("Alpha Squad")
	assert.True(t, u.IsMoving)
	assert.Equal(t, "valley-beta", u.Destination)

	m.Advance(99 * time.Millisecond)
	assert.Equal(t, ExecutingOrder, m.State())
	m.Advance(time.Millisecond)
	assert.Equal(t, Active, m.State())

	bus.Drain(4)
	require.Len(t, rec.completed, 1)
	assert.Equal(t, cur.ID, rec.completed[0].Order.ID)
	assert.Contains(t, contents(rec.sitreps), "Alpha Squad executing move order")
	assert.Empty(t, rec.failed)
}

func TestMachine_InvalidOrderFails(t *testing.T) {
	m, bus, rec := newMachine(t, theater(t), nil)

	require.True(t, m.Send(ValidateOrder{Order: moveOrder("Ghost Squad", "nowhere")}))
	assert.Equal(t, Active, m.State())
	assert.Equal(t, []string{`Unit "Ghost Squad" not found`, `Destination "nowhere" not found`}, m.ValidationErrors())

	bus.Drain(4)
	require.Len(t, rec.failed, 1)
	assert.False(t, rec.failed[0].Refused)
	assert.Equal(t, `Unit "Ghost Squad" not found; Destination "nowhere" not found`, rec.failed[0].Reason)
}

func TestMachine_Refusals(t *testing.T) {
	attack := orders.Order{Unit: "Alpha Squad", Action: orders.Attack, Target: "Red Squad"}

	tests := []struct {
		name   string
		mutate func(*Config)
		order  orders.Order
		reason string
	}{
		{
			name: "low morale",
			mutate: func(c *Config) {
				s := InitialSupplies("")
				s.Morale = 30
				c.Supplies = map[string]SupplyState{"Alpha Squad": s}
			},
			order:  attack,
			reason: "morale too low for offensive action (30%)",
		},
		{
			name: "low ammunition",
			mutate: func(c *Config) {
				s := InitialSupplies("")
				s.Ammunition = 15
				c.Supplies = map[string]SupplyState{"Alpha Squad": s}
			},
			order:  attack,
			reason: "insufficient ammunition (15%)",
		},
		{
			name: "refuses everything",
			mutate: func(c *Config) {
				c.Personalities = map[string]Personality{"Alpha Squad": {Type: Unpredictable, WillRefuseOrders: true}}
			},
			order:  moveOrder("Alpha Squad", "valley-beta"),
			reason: "unit is refusing all orders",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := theater(t)
			m, bus, rec := newMachine(t, w, tt.mutate)

			require.True(t, m.Send(ValidateOrder{Order: tt.order}))
			assert.Equal(t, RefusingOrder, m.State())
			m.Advance(RefuseDelay)
			assert.Equal(t, Active, m.State())

			bus.Drain(4)
			require.Len(t, rec.failed, 1)
			assert.True(t, rec.failed[0].Refused)
			assert.Equal(t, tt.reason, rec.failed[0].Reason)
			assert.Empty(t, rec.completed)

			u, _ := w.UnitByName("Alpha Squad")
			assert.Equal(t, world.StateIdle, u.State)
		})
	}
}

func TestMachine_LowMoraleStillMoves(t *testing.T) {
	m, _, _ := newMachine(t, theater(t), func(c *Config) {
		s := InitialSupplies("")
		s.Morale = 10
		s.Ammunition = 5
		c.Supplies = map[string]SupplyState{"Alpha Squad": s}
	})
	require.True(t, m.Send(ValidateOrder{Order: moveOrder("Alpha Squad", "valley-beta")}))
	assert.Equal(t, ExecutingOrder, m.State())
}

func TestMachine_CautiousUnitAdapts(t *testing.T) {
	m, bus, rec := newMachine(t, theater(t), func(c *Config) { c.AdaptChance = 1 })

	require.True(t, m.Send(ValidateOrder{Order: moveOrder("Eagle Recon", "valley-beta")}))
	assert.Equal(t, AdaptingOrder, m.State())
	cur, _ := m.CurrentOrder()
	assert.Equal(t, []string{"request backup", "proceed with caution"}, cur.Modifiers)

	m.Advance(AdaptDelay)
	assert.Equal(t, ExecutingOrder, m.State())
	m.Advance(ExecuteDelay)
	assert.Equal(t, Active, m.State())

	bus.Drain(4)
	require.Len(t, rec.completed, 1)
	assert.Equal(t, []string{"request backup", "proceed with caution"}, rec.completed[0].Order.Modifiers)
	assert.Contains(t, contents(rec.sitreps),
		"Eagle Recon: Adapting orders. Reason: Tactical assessment suggests modified approach")
}

func TestMachine_ReliableUnitNeverAdapts(t *testing.T) {
	m, _, _ := newMachine(t, theater(t), func(c *Config) { c.AdaptChance = 1 })
	require.True(t, m.Send(ValidateOrder{Order: moveOrder("Alpha Squad", "valley-beta")}))
	assert.Equal(t, ExecutingOrder, m.State())
}

func TestMachine_OrdersHeldWhileBusy(t *testing.T) {
	w := theater(t)
	m, bus, rec := newMachine(t, w, nil)

	require.True(t, m.Send(ValidateOrder{Order: moveOrder("Alpha Squad", "valley-beta")}))
	require.True(t, m.Send(ValidateOrder{Order: moveOrder("Eagle Recon", "valley-beta")}))
	assert.Equal(t, 1, m.Snapshot().Backlog)

	m.Advance(ExecuteDelay)
	assert.Equal(t, ExecutingOrder, m.State())
	cur, _ := m.CurrentOrder()
	assert.Equal(t, "Eagle Recon", cur.Unit)
	assert.Equal(t, 0, m.Snapshot().Backlog)

	m.Advance(ExecuteDelay)
	bus.Drain(4)
	require.Len(t, rec.completed, 2)
	assert.Equal(t, "Alpha Squad", rec.completed[0].Order.Unit)
	assert.Equal(t, "Eagle Recon", rec.completed[1].Order.Unit)
}

func TestMachine_TimeConstraints(t *testing.T) {
	w := theater(t)
	m, bus, rec := newMachine(t, w, nil)
	require.True(t, m.Send(loopTick(w, 1, mission.Clock{Start: 6 * time.Hour, Elapsed: time.Hour})))

	late := moveOrder("Alpha Squad", "valley-beta")
	late.TimeConstraint = "0630Z"
	require.True(t, m.Send(ValidateOrder{Order: late}))
	assert.Equal(t, Active, m.State())

	u, _ := w.UnitByName("Alpha Squad")
	assert.False(t, u.IsMoving)

	onTime := moveOrder("Alpha Squad", "valley-beta")
	onTime.TimeConstraint = "dusk"
	require.True(t, m.Send(ValidateOrder{Order: onTime}))
	assert.Equal(t, ExecutingOrder, m.State())
	require.True(t, m.Send(CheckTimeConstraints{}))
	assert.Equal(t, Active, m.State())

	bus.Drain(4)
	require.Len(t, rec.failed, 1)
	assert.Equal(t, "Time constraint violated for Alpha Squad: 0630Z passed", rec.failed[0].Reason)
	require.Len(t, rec.completed, 1)
	assert.Equal(t, "dusk", rec.completed[0].Order.TimeConstraint)
}

func TestMachine_SupplyDegradation(t *testing.T) {
	w := theater(t)
	m, _, _ := newMachine(t, w, nil)

	require.True(t, m.Send(loopTick(w, 1, mission.Clock{})))
	s := m.Snapshot().Supplies["Alpha Squad"]
	assert.Equal(t, 99, s.Ammunition)
	assert.Equal(t, 99, s.Fuel)
	assert.Equal(t, 11, s.Fatigue)
	assert.Equal(t, 85, s.Morale)
	assert.True(t, s.Communications)

	require.True(t, m.Send(CommunicationJammed{}))
	require.True(t, m.Send(loopTick(w, 2, mission.Clock{})))
	s = m.Snapshot().Supplies["Alpha Squad"]
	assert.Equal(t, 97, s.Ammunition)
	assert.Equal(t, 13, s.Fatigue)
	assert.Equal(t, 84, s.Morale)
	assert.False(t, s.Communications)
}

func TestMachine_CriticalAmmunition(t *testing.T) {
	w := theater(t)
	m, bus, rec := newMachine(t, w, func(c *Config) {
		s := InitialSupplies("")
		s.Ammunition = 10
		c.Supplies = map[string]SupplyState{"Alpha Squad": s}
	})
	require.True(t, m.Send(loopTick(w, 1, mission.Clock{})))
	bus.Drain(4)

	assert.Contains(t, contents(rec.sitreps), "Alpha Squad: CRITICAL ammunition shortage (9%)")
	assert.Contains(t, contents(rec.sitreps), "All units reporting. Communications clear.")
	assert.Equal(t, 83, m.Snapshot().Supplies["Alpha Squad"].Morale)
}

func TestMachine_BlackoutHoldsOrders(t *testing.T) {
	w := theater(t)
	m, bus, rec := newMachine(t, w, nil)

	require.True(t, m.Send(CommunicationJammed{}))
	assert.Equal(t, CommunicationBlackout, m.State())
	assert.False(t, m.CommunicationsActive())

	require.True(t, m.Send(ValidateOrder{Order: moveOrder("Alpha Squad", "valley-beta")}))
	assert.Equal(t, 1, m.Snapshot().Backlog)
	u, _ := w.UnitByName("Alpha Squad")
	assert.False(t, u.IsMoving)

	require.True(t, m.Send(CommunicationRestored{}))
	assert.Equal(t, ExecutingOrder, m.State())
	assert.True(t, u.IsMoving)

	bus.Drain(4)
	assert.Contains(t, contents(rec.sitreps), "COMMUNICATIONS JAMMED - Orders may be delayed or fail")
	assert.Contains(t, contents(rec.sitreps), "Communications restored - Normal operations resumed")
}

func TestMachine_BlackoutExpires(t *testing.T) {
	m, _, _ := newMachine(t, theater(t), nil)

	require.True(t, m.Send(CommunicationJammed{}))
	m.Advance(BlackoutTimeout - time.Millisecond)
	assert.Equal(t, CommunicationBlackout, m.State())
	m.Advance(time.Millisecond)
	assert.Equal(t, Active, m.State())
	assert.Equal(t, CommDegraded, m.Comms())
	assert.True(t, m.CommunicationsActive())

	require.True(t, m.Send(CommunicationRestored{}))
	assert.Equal(t, CommClear, m.Comms())
}

func TestMachine_JamDuringExecution(t *testing.T) {
	m, _, _ := newMachine(t, theater(t), nil)

	require.True(t, m.Send(ValidateOrder{Order: moveOrder("Alpha Squad", "valley-beta")}))
	require.True(t, m.Send(CommunicationJammed{}))
	assert.Equal(t, ExecutingOrder, m.State())

	m.Advance(ExecuteDelay)
	assert.Equal(t, CommunicationBlackout, m.State())
}

func TestMachine_SupplyShortage(t *testing.T) {
	w := theater(t)
	low := InitialSupplies("")
	low.Ammunition = 21
	m, bus, rec := newMachine(t, w, func(c *Config) {
		c.Supplies = map[string]SupplyState{"Alpha Squad": low, "Eagle Recon": low}
	})

	require.True(t, m.Send(loopTick(w, 1, mission.Clock{})))
	assert.Equal(t, SupplyShortage, m.State())

	require.True(t, m.Send(ProcessSupplies{}))
	assert.Equal(t, SupplyShortage, m.State())

	require.True(t, m.Send(ValidateOrder{Order: moveOrder("Alpha Squad", "valley-beta")}))
	require.True(t, m.Send(Resupply{Unit: "Alpha Squad"}))
	assert.Equal(t, ExecutingOrder, m.State())
	assert.Equal(t, 100, m.Snapshot().Supplies["Alpha Squad"].Ammunition)

	assert.False(t, m.Send(Resupply{Unit: "Ghost Squad"}))

	bus.Drain(4)
	assert.Contains(t, contents(rec.sitreps), "All units report critical supply levels. Awaiting resupply.")
	assert.Contains(t, contents(rec.sitreps), "Alpha Squad: Resupplied. Ammunition and fuel at 100%.")
}

func TestMachine_SupplyShortageTimesOut(t *testing.T) {
	w := theater(t)
	low := InitialSupplies("")
	low.Fuel = 5
	m, _, _ := newMachine(t, w, func(c *Config) {
		c.Supplies = map[string]SupplyState{"Alpha Squad": low, "Eagle Recon": low}
	})
	require.True(t, m.Send(loopTick(w, 1, mission.Clock{})))
	require.Equal(t, SupplyShortage, m.State())

	m.Advance(ShortageTimeout)
	assert.Equal(t, Active, m.State())
	last := m.Snapshot().SitReps
	assert.Equal(t, "Supply shortage persists. Resuming operations with reduced logistics.", last[len(last)-1].Content)
}

func TestMachine_Intel(t *testing.T) {
	m, bus, rec := newMachine(t, theater(t), nil)

	require.True(t, m.Send(UpdateIntel{Source: SourceSigint, Confidence: 90, Content: "Armor column sighted", Location: "valley-beta"}))
	require.True(t, m.Send(UpdateIntel{Source: SourceHumint, Confidence: 60, Content: "Movement near bridge"}))
	require.True(t, m.Send(UpdateIntel{Source: SourceHumint, Confidence: 150, Content: "Rumour"}))
	require.True(t, m.Send(UpdateIntel{Source: SourceHumint, Confidence: 40, Content: "Possible patrol"}))

	snap := m.Snapshot()
	require.Len(t, snap.Intel, 4)
	assert.Equal(t, PriorityHigh, snap.Intel[0].Priority)
	assert.Equal(t, PriorityMedium, snap.Intel[1].Priority)
	assert.Equal(t, 100, snap.Intel[2].Confidence)
	assert.Equal(t, PriorityLow, snap.Intel[3].Priority)
	assert.Equal(t, Sighting{Confidence: 90, LastSeen: "0000Z"}, snap.KnownEnemies["valley-beta"])

	bus.Drain(4)
	assert.Equal(t, []string{
		"[CONFIRMED] Armor column sighted",
		"[PROBABLE] Movement near bridge",
		"[CONFIRMED] Rumour",
		"[UNCONFIRMED] Possible patrol",
	}, contents(rec.sitreps))
	assert.Equal(t, SeverityCritical, rec.sitreps[0].Severity)
	assert.Equal(t, SeverityInfo, rec.sitreps[1].Severity)
}

func TestMachine_IntelCap(t *testing.T) {
	m, _, _ := newMachine(t, theater(t), nil)
	for i := 0; i < SitRepCap+5; i++ {
		m.Send(UpdateIntel{Source: SourceSigint, Confidence: 50, Content: fmt.Sprint(i)})
	}
	snap := m.Snapshot()
	require.Len(t, snap.Intel, IntelCap)
	assert.Equal(t, "25", snap.Intel[0].Content)
	assert.Len(t, snap.SitReps, SitRepCap)
}

func TestMachine_ReconReport(t *testing.T) {
	m, _, _ := newMachine(t, theater(t), nil)
	require.True(t, m.Send(ReconReport{Source: ReconScout, Location: "valley-beta", Findings: "Two squads dug in"}))
	require.True(t, m.Send(ReconReport{Source: ReconUAV, Findings: "Convoy on the road"}))

	intel := m.Snapshot().Intel
	require.Len(t, intel, 2)
	assert.Equal(t, SourceVisual, intel[0].Source)
	assert.Equal(t, 70, intel[0].Confidence)
	assert.Equal(t, "valley-beta", intel[0].Location)
	assert.Equal(t, SourceUAV, intel[1].Source)
	assert.Equal(t, 90, intel[1].Confidence)
}

func TestMachine_AnalyzeIntel(t *testing.T) {
	m, _, _ := newMachine(t, theater(t), nil)
	m.Send(UpdateIntel{Source: SourceSigint, Confidence: 95, Content: "a"})
	m.Send(UpdateIntel{Source: SourceSigint, Confidence: 55, Content: "b"})

	require.True(t, m.Send(AnalyzeIntel{}))
	assert.Equal(t, ProcessingIntel, m.State())
	require.True(t, m.Send(ValidateOrder{Order: moveOrder("Alpha Squad", "valley-beta")}))

	m.Advance(AnalysisDelay)
	assert.Equal(t, ExecutingOrder, m.State())
	reps := m.Snapshot().SitReps
	assert.Contains(t, contents(reps), "Intel analysis: Processed 2 reports, 1 high confidence")
}

func TestMachine_UnitSitReps(t *testing.T) {
	m, _, _ := newMachine(t, theater(t), func(c *Config) {
		low := InitialSupplies("")
		low.Ammunition = 15
		shaken := InitialSupplies("")
		shaken.Morale = 25
		c.Supplies = map[string]SupplyState{"Alpha Squad": low, "Eagle Recon": shaken}
	})
	for _, u := range []string{"Alpha Squad", "Eagle Recon", "Red Squad", "Ghost Squad", ""} {
		require.True(t, m.Send(GenerateSitRep{Unit: u}))
	}
	reps := m.Snapshot().SitReps
	assert.Equal(t, []string{
		"Alpha Squad: Ammunition low (15%)",
		"Eagle Recon: Morale critical (25%)",
		"Red Squad: Operational. Status green.",
		"Ghost Squad: No report. Unit not in contact.",
		"All units reporting. Communications clear.",
	}, contents(reps))
	assert.Equal(t, KindSupply, reps[0].Kind)
	assert.Equal(t, "alpha-ridge", reps[0].Location)
	assert.Equal(t, SeverityCritical, reps[1].Severity)
}

func TestMachine_CombatReports(t *testing.T) {
	w := theater(t)
	alpha, _ := w.UnitByName("Alpha Squad")
	red, _ := w.UnitByName("Red Squad")
	alpha.Zone = "valley-beta"
	require.True(t, world.EngageTarget(alpha, red))

	m, bus, rec := newMachine(t, w, nil)
	require.True(t, m.Send(ProcessCombat{Delta: 1}))

	assert.InDelta(t, 98.0, red.Morale, 1e-9)
	assert.InDelta(t, 98.0, alpha.Morale, 1e-9)
	combat := m.Snapshot().Combat
	require.Len(t, combat, 2)
	assert.Equal(t, CombatResult{Attacker: "Alpha Squad", Target: "Red Squad", Result: Hit, Confidence: 75}, combat[0])
	assert.Equal(t, "Red Squad", combat[1].Attacker)

	m.Send(CommunicationJammed{})
	require.True(t, m.Send(ProcessCombat{Delta: 1}))
	combat = m.Snapshot().Combat
	require.Len(t, combat, 4)
	assert.Equal(t, 50, combat[2].Confidence)

	bus.Drain(4)
	assert.Contains(t, contents(rec.sitreps), "[CONFIRMED] Contact reported. Engaging hostile forces.")
	assert.Contains(t, contents(rec.sitreps), "[UNCONFIRMED] Contact reported. Engaging hostile forces.")
}

func TestMachine_CombatCapAndQuietPass(t *testing.T) {
	w := theater(t)
	m, _, _ := newMachine(t, w, nil)
	require.True(t, m.Send(ProcessCombat{Delta: 1}))
	assert.Empty(t, m.Snapshot().Combat)

	alpha, _ := w.UnitByName("Alpha Squad")
	red, _ := w.UnitByName("Red Squad")
	alpha.Zone = "valley-beta"
	world.EngageTarget(alpha, red)
	for i := 0; i < CombatCap+5; i++ {
		m.Send(ProcessCombat{Delta: 0.01})
	}
	assert.Len(t, m.Snapshot().Combat, CombatCap)
}

func TestMachine_VerdictOnce(t *testing.T) {
	w := theater(t)
	m, bus, rec := newMachine(t, w, nil)

	require.True(t, m.Send(loopTick(w, 1, mission.Clock{})))
	assert.False(t, m.Verdict().Decided())

	w.RemoveFaction(world.Hostile)
	m.Send(loopTick(w, 2, mission.Clock{}))
	m.Send(loopTick(w, 3, mission.Clock{}))

	bus.Drain(4)
	require.Len(t, rec.verdicts, 1)
	assert.Equal(t, mission.Victory, rec.verdicts[0].Result.Outcome)
	assert.Equal(t, "victory", m.Snapshot().Verdict)
}

func TestMachine_DefeatVerdict(t *testing.T) {
	w := theater(t)
	m, bus, rec := newMachine(t, w, func(c *Config) { c.VictoryCondition = mission.Occupation })
	w.RemoveFaction(world.Friendly)
	m.Send(loopTick(w, 1, mission.Clock{}))

	bus.Drain(4)
	require.Len(t, rec.verdicts, 1)
	assert.Equal(t, mission.Defeat, rec.verdicts[0].Result.Outcome)
}

func TestMachine_DetachResets(t *testing.T) {
	w := theater(t)
	m, _, _ := newMachine(t, w, nil)
	m.Send(UpdateIntel{Source: SourceSigint, Confidence: 90, Content: "x"})
	m.Send(ValidateOrder{Order: moveOrder("Alpha Squad", "valley-beta")})

	require.True(t, m.Send(WorldReady{}))
	assert.Equal(t, Idle, m.State())
	assert.Nil(t, m.World())
	snap := m.Snapshot()
	assert.Empty(t, snap.Intel)
	assert.Empty(t, snap.Supplies)
	assert.Nil(t, snap.CurrentOrder)
	assert.Equal(t, 0, m.Advance(time.Minute))
}

func TestMachine_UpdateMorale(t *testing.T) {
	w := theater(t)
	red, _ := w.UnitByName("Red Squad")
	red.State = world.StateEngaged

	m, _, _ := newMachine(t, w, nil)
	require.True(t, m.Send(UpdateMorale{Delta: 2}))
	assert.InDelta(t, 90.0, red.Morale, 1e-9)
}

func TestPersonalityFor(t *testing.T) {
	assert.Equal(t, Aggressive, PersonalityFor(world.Armor).Type)
	assert.Equal(t, 50, PersonalityFor(world.Armor).MoraleThreshold)
	assert.Equal(t, PersonalityFor(world.Infantry), PersonalityFor("Cavalry"))
	for _, ut := range world.UnitTypes {
		assert.False(t, PersonalityFor(ut).WillRefuseOrders, ut)
	}
}

func TestPriorityAndTags(t *testing.T) {
	assert.Equal(t, PriorityHigh, PriorityFor(81))
	assert.Equal(t, PriorityMedium, PriorityFor(80))
	assert.Equal(t, PriorityMedium, PriorityFor(51))
	assert.Equal(t, PriorityLow, PriorityFor(50))
	assert.Equal(t, "CONFIRMED", ConfidenceTag(81))
	assert.Equal(t, "PROBABLE", ConfidenceTag(51))
	assert.Equal(t, "UNCONFIRMED", ConfidenceTag(50))
}
