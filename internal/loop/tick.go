package loop

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wartactics/server/internal/mission"
	"github.com/wartactics/server/internal/orders"
	"github.com/wartactics/server/internal/world"
)

// processTick is the processingTick entry pipeline:
// counters and tick log, pending to active, execute active into the
// completed history, step the systems, then report.
func (m *Machine) processTick(trigger Event) {
	m.state.Mode = ProcessingTick
	manual := trigger.Type() != EvTick

	m.currentTick++
	m.missionTimer++
	m.clock.Advance(m.tickDuration)
	if t, ok := trigger.(Tick); ok && !t.Timestamp.IsZero() {
		m.lastTickTime = t.Timestamp
	} else {
		m.lastTickTime = m.cfg.Now()
	}
	if manual {
		m.pushLog(fmt.Sprintf("[TICK %d] Manual advance", m.currentTick))
	} else {
		m.pushLog(fmt.Sprintf("[TICK %d] Mission time: %ds", m.currentTick, int(m.clock.Elapsed/time.Second)))
	}

	if len(m.pending) > 0 {
		m.pushLog(fmt.Sprintf("Processing %d new order(s)", len(m.pending)))
		m.active = append(m.active, m.pending...)
		m.pending = nil
	}

	executed := m.executeOrders()

	if m.runner != nil {
		m.runner.Tick(m.tickDuration)
	}

	report := m.generateSitRep()
	m.sitreps.Push(report)
	m.pushLog(fmt.Sprintf("Generated SITREP for tick %d", m.currentTick))

	m.timers.After(timerSettle, m.cfg.TickSettle, tickSettled{})
	m.emit(TickProcessed{
		World:        m.world,
		Tick:         m.currentTick,
		Turn:         m.turnCount,
		MissionTimer: m.missionTimer,
		TickDuration: m.tickDuration,
		MissionTime:  m.clock,
		Manual:       manual,
		Executed:     executed,
		SitRep:       report,
	})
}

func (m *Machine) executeOrders() []orders.Record {
	if len(m.active) == 0 {
		return nil
	}
	records := make([]orders.Record, 0, len(m.active))
	for _, o := range m.active {
		rec := orders.Record{Order: o, Tick: m.currentTick, Status: orders.StatusExecuted}
		if err := m.cfg.Executor.Execute(o, m.world); err != nil {
			rec.Status = orders.StatusFailed
			rec.Errors = orders.Messages(err)
			m.pushLog(fmt.Sprintf("Order failed: %s for %s (%s)", o.Action, o.Unit, strings.Join(rec.Errors, "; ")))
			m.log.Debug("order failed", zap.String("order", o.String()), zap.Error(err))
		}
		records = append(records, rec)
		m.completed.Push(rec)
	}
	m.pushLog(fmt.Sprintf("Executed %d order(s)", len(m.active)))
	m.active = nil
	return records
}

func (m *Machine) generateSitRep() string {
	stamp := m.clock.Stamp()
	if m.world == nil {
		return fmt.Sprintf("[%s] SITREP: No forces deployed.", stamp)
	}
	var friendly, hostile, engaged, moving, retreating int
	m.world.EachUnit(func(u *world.Unit) {
		switch u.Faction {
		case world.Friendly:
			friendly++
		case world.Hostile:
			hostile++
		}
		if u.Faction != world.Friendly {
			return
		}
		switch u.State {
		case world.StateEngaged:
			engaged++
		case world.StateMoving:
			moving++
		case world.StateRetreating:
			retreating++
		}
	})

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] SITREP: ", stamp)
	if engaged == 0 && retreating == 0 {
		b.WriteString("All units operational. No contact.")
	} else {
		fmt.Fprintf(&b, "%d unit(s) in contact.", engaged)
		if retreating > 0 {
			fmt.Fprintf(&b, " %d retreating.", retreating)
		}
	}
	if moving > 0 {
		fmt.Fprintf(&b, " %d moving.", moving)
	}
	fmt.Fprintf(&b, " Friendly %d, hostile %d.", friendly, hostile)
	return b.String()
}

// Snapshot is a copy of the machine's observable context.
type Snapshot struct {
	State            State
	CurrentTick      int
	TickDuration     time.Duration
	LastTickTime     time.Time
	IsRealTime       bool
	TurnCount        int
	MissionTimer     int
	MissionTimeLimit int
	MissionTime      string // HHMMZ
	PendingOrders    []orders.Order
	ActiveOrders     []orders.Order
	CompletedOrders  []orders.Record
	Logs             []string
	SitReps          []string
	VictoryCondition mission.Condition
	Error            string
	Outcome          mission.Result
	HasWorld         bool
}

func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		State:            m.state,
		CurrentTick:      m.currentTick,
		TickDuration:     m.tickDuration,
		LastTickTime:     m.lastTickTime,
		IsRealTime:       m.isRealTime,
		TurnCount:        m.turnCount,
		MissionTimer:     m.missionTimer,
		MissionTimeLimit: m.missionTimeLimit,
		MissionTime:      m.clock.Stamp(),
		PendingOrders:    append([]orders.Order(nil), m.pending...),
		ActiveOrders:     append([]orders.Order(nil), m.active...),
		CompletedOrders:  m.completed.Slice(),
		Logs:             m.logs.Slice(),
		SitReps:          m.sitreps.Slice(),
		VictoryCondition: m.victoryCondition,
		Error:            m.err,
		Outcome:          m.outcome,
		HasWorld:         m.world != nil,
	}
}
