// Package logic implements the game logic state machine: order validation,
// unit willingness, adaptation and refusal, timed execution, intelligence,
// communications, logistics, situation reports and victory detection.
//
// Like the loop machine it is an explicit state pattern driven by Send and
// by virtual timers delivered through Advance. Order outcomes, filed
// situation reports and the mission verdict go out on an event.Bus.
package logic

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/wartactics/server/internal/core/event"
	"github.com/wartactics/server/internal/core/ring"
	"github.com/wartactics/server/internal/core/timer"
	"github.com/wartactics/server/internal/mission"
	"github.com/wartactics/server/internal/orders"
	"github.com/wartactics/server/internal/world"
)

const (
	IntelCap  = 30
	SitRepCap = 50
	CombatCap = 20

	DefaultAdaptChance = 0.3

	AdaptDelay      = 200 * time.Millisecond
	RefuseDelay     = 100 * time.Millisecond
	ExecuteDelay    = 100 * time.Millisecond
	AnalysisDelay   = 500 * time.Millisecond
	ShortageTimeout = 5 * time.Second
	BlackoutTimeout = 10 * time.Second

	maxBacklog = 64

	timerOrder    = "order"
	timerAnalysis = "analysis"
	timerShortage = "shortage"
	timerBlackout = "blackout"
)

// Config is the logic machine's starting context.
type Config struct {
	VictoryCondition mission.Condition
	SurvivalTurns    int
	MissionStart     time.Duration

	// AdaptChance is the probability a cautious unit modifies an order.
	AdaptChance float64
	// Rand drives the adaptation roll. Nil seeds from the wall clock.
	Rand *rand.Rand
	// Executor carries out accepted orders. Nil executes directly.
	Executor orders.Executor

	// Per-unit overrides keyed by unit name.
	Personalities map[string]Personality
	Supplies      map[string]SupplyState
}

func (c *Config) applyDefaults() {
	if c.VictoryCondition == "" {
		c.VictoryCondition = mission.Elimination
	}
	if c.AdaptChance < 0 {
		c.AdaptChance = 0
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.Executor == nil {
		c.Executor = orders.Direct
	}
}

// DefaultConfig returns an elimination mission with the standard adapt chance.
func DefaultConfig() Config {
	return Config{
		VictoryCondition: mission.Elimination,
		SurvivalTurns:    mission.DefaultSurvivalTurns,
		AdaptChance:      DefaultAdaptChance,
	}
}

// OrderCompleted is emitted when an accepted order finishes executing.
type OrderCompleted struct {
	Order orders.Order
}

// OrderFailed is emitted for invalid, refused, violated or failed orders.
type OrderFailed struct {
	Order   orders.Order
	Reason  string
	Refused bool
}

// SitRepFiled is emitted for every situation report.
type SitRepFiled struct {
	SitRep  SitRep
	Routine bool
}

// Verdict is emitted once per world when victory or defeat is detected.
type Verdict struct {
	Result mission.Result
}

// Machine is the game logic state machine. Not safe for concurrent use.
type Machine struct {
	cfg    Config
	log    *zap.Logger
	bus    *event.Bus
	timers *timer.Scheduler[Event]

	state State

	world        *world.World
	tick         int
	turn         int
	missionTimer int
	clock        mission.Clock

	current          *orders.Order
	validationErrors []string
	backlog          []orders.Order

	intel         *ring.Buffer[IntelReport]
	sitreps       *ring.Buffer[SitRep]
	combat        *ring.Buffer[CombatResult]
	supplies      map[string]*SupplyState
	personalities map[string]Personality
	enemies       map[string]Sighting
	recon         []ReconAsset
	comms         CommStatus

	verdict mission.Result
}

// New creates a machine in the idle state. bus may be nil.
func New(cfg Config, log *zap.Logger, bus *event.Bus) *Machine {
	cfg.applyDefaults()
	return &Machine{
		cfg:           cfg,
		log:           log,
		bus:           bus,
		timers:        timer.NewScheduler[Event](),
		clock:         mission.Clock{Start: cfg.MissionStart},
		intel:         ring.New[IntelReport](IntelCap),
		sitreps:       ring.New[SitRep](SitRepCap),
		combat:        ring.New[CombatResult](CombatCap),
		supplies:      make(map[string]*SupplyState),
		personalities: make(map[string]Personality),
		enemies:       make(map[string]Sighting),
		comms:         CommClear,
	}
}

func (m *Machine) State() State               { return m.state }
func (m *Machine) World() *world.World        { return m.world }
func (m *Machine) Comms() CommStatus          { return m.comms }
func (m *Machine) Verdict() mission.Result    { return m.verdict }
func (m *Machine) ValidationErrors() []string { return m.validationErrors }

// CurrentOrder returns the order in flight, if any.
func (m *Machine) CurrentOrder() (orders.Order, bool) {
	if m.current == nil {
		return orders.Order{}, false
	}
	return *m.current, true
}

// CommunicationsActive reports whether orders can reach the units.
func (m *Machine) CommunicationsActive() bool { return m.comms != CommJammed }

// Send delivers one event. Events the current state does not accept are
// ignored and reported as false.
func (m *Machine) Send(ev Event) bool {
	before := m.state
	if !m.dispatch(ev) {
		m.log.Debug("logic event ignored",
			zap.String("event", string(ev.Type())),
			zap.Stringer("state", m.state))
		return false
	}
	if m.state != before {
		m.log.Debug("logic transition",
			zap.String("event", string(ev.Type())),
			zap.Stringer("from", before),
			zap.Stringer("to", m.state))
	}
	return true
}

// Advance moves the virtual clock by d and delivers every timer that comes
// due. Returns the number of timer events delivered.
func (m *Machine) Advance(d time.Duration) int {
	return m.timers.Advance(d, func(f timer.Fired[Event]) {
		m.Send(f.Event)
	})
}

// NextDue returns how long until the next timer fires.
func (m *Machine) NextDue() (time.Duration, bool) {
	return m.timers.NextDue()
}

func (m *Machine) dispatch(ev Event) bool {
	if e, ok := ev.(WorldReady); ok {
		m.attach(e.World)
		return true
	}

	if m.state == Idle {
		e, ok := ev.(GameLoopTick)
		if !ok {
			return false
		}
		m.onTick(e)
		m.enterActive()
		return true
	}

	// Handled in every non-idle state.
	switch e := ev.(type) {
	case GameLoopTick:
		m.onTick(e)
		if m.state == Active && m.allShort() {
			m.enterShortage()
		}
		return true
	case UpdateIntel:
		m.addIntel(e.Source, e.Confidence, e.Content, e.Location)
		return true
	case ReconReport:
		m.reconReport(e)
		return true
	case GenerateSitRep:
		m.unitSitRep(e.Unit)
		return true
	case ProcessCombat:
		m.processCombat(e.Delta)
		return true
	case UpdateMorale:
		if m.world != nil {
			world.Morale(m.world, e.Delta)
		}
		return true
	case Resupply:
		return m.resupply(e.Unit)
	case CommunicationJammed:
		m.jam()
		return true
	case CommunicationRestored:
		m.restore(CommClear)
		return true
	case blackoutExpired:
		m.restore(CommDegraded)
		return true
	}

	switch m.state {
	case Active:
		switch e := ev.(type) {
		case ValidateOrder:
			m.validate(e.Order)
			return true
		case AnalyzeIntel:
			m.state = ProcessingIntel
			m.timers.After(timerAnalysis, AnalysisDelay, analysisDone{})
			return true
		}
	case AdaptingOrder:
		switch e := ev.(type) {
		case adaptDone:
			m.beginExecution()
			return true
		case ValidateOrder:
			return m.hold(e.Order)
		}
	case RefusingOrder:
		switch e := ev.(type) {
		case refuseDone:
			m.refused()
			return true
		case ValidateOrder:
			return m.hold(e.Order)
		}
	case ExecutingOrder:
		switch e := ev.(type) {
		case executeDone:
			m.completeOrder()
			return true
		case CheckTimeConstraints:
			m.timers.Cancel(timerOrder)
			if reason := m.deadlineViolation(*m.current); reason != "" {
				m.failOrder(reason, false)
			} else {
				m.completeOrder()
			}
			return true
		case ValidateOrder:
			return m.hold(e.Order)
		}
	case ProcessingIntel:
		switch e := ev.(type) {
		case analysisDone:
			m.analyzeIntel()
			m.enterActive()
			return true
		case ValidateOrder:
			return m.hold(e.Order)
		}
	case SupplyShortage:
		switch e := ev.(type) {
		case ProcessSupplies:
			if !m.allShort() {
				m.timers.Cancel(timerShortage)
				m.enterActive()
			}
			return true
		case shortageTimeout:
			m.fileSitRep(KindSupply, "", "Supply shortage persists. Resuming operations with reduced logistics.", SeverityWarning)
			m.enterActive()
			return true
		case ValidateOrder:
			return m.hold(e.Order)
		}
	case CommunicationBlackout:
		if e, ok := ev.(ValidateOrder); ok {
			return m.hold(e.Order)
		}
	}
	return false
}

// enterActive runs the active state's entry: victory check, then the next
// held order if communications allow.
func (m *Machine) enterActive() {
	m.state = Active
	m.current = nil
	m.checkVictory()
	if !m.CommunicationsActive() {
		m.state = CommunicationBlackout
		return
	}
	if len(m.backlog) == 0 {
		return
	}
	next := m.backlog[0]
	m.backlog = m.backlog[1:]
	m.validate(next)
}

func (m *Machine) enterShortage() {
	m.state = SupplyShortage
	m.fileSitRep(KindSupply, "", "All units report critical supply levels. Awaiting resupply.", SeverityCritical)
	m.timers.After(timerShortage, ShortageTimeout, shortageTimeout{})
}

// hold keeps an order that arrived while another was in flight.
func (m *Machine) hold(o orders.Order) bool {
	if len(m.backlog) >= maxBacklog {
		m.log.Warn("order dropped, backlog full", zap.String("order", o.String()))
		return false
	}
	m.backlog = append(m.backlog, o.WithID())
	return true
}

// attach swaps the world. All per-world state is reset.
func (m *Machine) attach(w *world.World) {
	m.timers.Clear()
	m.world = w
	m.tick = 0
	m.turn = 0
	m.missionTimer = 0
	m.clock = mission.Clock{Start: m.cfg.MissionStart}
	m.current = nil
	m.validationErrors = nil
	m.backlog = nil
	m.intel.Clear()
	m.sitreps.Clear()
	m.combat.Clear()
	m.supplies = make(map[string]*SupplyState)
	m.personalities = make(map[string]Personality)
	m.enemies = make(map[string]Sighting)
	m.recon = nil
	m.comms = CommClear
	m.verdict = mission.Result{}
	if w == nil {
		m.state = Idle
		return
	}
	m.syncUnits()
	m.enterActive()
}

func (m *Machine) checkVictory() {
	if m.verdict.Decided() || m.world == nil {
		return
	}
	r := mission.Evaluate(m.world, m.cfg.VictoryCondition, mission.Progress{
		TurnCount:     m.turn,
		MissionTimer:  m.missionTimer,
		SurvivalTurns: m.cfg.SurvivalTurns,
	})
	if !r.Decided() {
		return
	}
	m.verdict = r
	m.log.Info("mission verdict", zap.Stringer("outcome", r.Outcome), zap.String("reason", r.Reason))
	m.emit(Verdict{Result: r})
}

func (m *Machine) emit(msg any) {
	if m.bus == nil {
		return
	}
	switch v := msg.(type) {
	case OrderCompleted:
		event.Emit(m.bus, v)
	case OrderFailed:
		event.Emit(m.bus, v)
	case SitRepFiled:
		event.Emit(m.bus, v)
	case Verdict:
		event.Emit(m.bus, v)
	}
}
