// Package loop implements the game loop state machine: tick cadence in
// turn-based or real-time mode, order queueing, simulation stepping, the
// rolling mission log and situation reports, and victory/defeat detection.
//
// The machine is an explicit state pattern. Delays (initialization settle,
// tick settle, the real-time tick timer) are virtual timers advanced by the
// owner through Advance, so the machine never blocks and never spawns
// goroutines. Outbound notifications go through an event.Bus.
package loop

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wartactics/server/internal/core/event"
	"github.com/wartactics/server/internal/core/ring"
	coresys "github.com/wartactics/server/internal/core/system"
	"github.com/wartactics/server/internal/core/timer"
	"github.com/wartactics/server/internal/mission"
	"github.com/wartactics/server/internal/orders"
	"github.com/wartactics/server/internal/system"
	"github.com/wartactics/server/internal/world"
)

const (
	LogCap       = 50
	SitRepCap    = 10
	CompletedCap = 100

	DefaultTickDuration = 5 * time.Second
	DefaultInitDelay    = time.Second
	DefaultTickSettle   = 100 * time.Millisecond

	maxDeferred = 32

	timerInit   = "init"
	timerGame   = "gameTimer"
	timerSettle = "settle"
)

// Config is the loop machine's starting context.
type Config struct {
	TickDuration     time.Duration
	RealTime         bool
	VictoryCondition mission.Condition
	MissionTimeLimit int // ticks, 0 for none
	SurvivalTurns    int
	MissionStart     time.Duration // time of day the mission clock starts at
	InitDelay        time.Duration
	TickSettle       time.Duration

	// NewWorld builds the world on START_GAME. Nil builds an empty world.
	NewWorld func() (*world.World, error)
	// Executor applies orders during tick processing. Nil executes directly.
	Executor orders.Executor
	// Now stamps timer ticks. Nil uses time.Now.
	Now func() time.Time
}

func (c *Config) applyDefaults() {
	if c.TickDuration < 0 {
		c.TickDuration = 0
	}
	if c.VictoryCondition == "" {
		c.VictoryCondition = mission.Elimination
	}
	if c.InitDelay <= 0 {
		c.InitDelay = DefaultInitDelay
	}
	if c.TickSettle <= 0 {
		c.TickSettle = DefaultTickSettle
	}
	if c.NewWorld == nil {
		c.NewWorld = func() (*world.World, error) { return world.New(), nil }
	}
	if c.Executor == nil {
		c.Executor = orders.Direct
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// DefaultConfig returns a turn-based elimination mission with 5s ticks.
func DefaultConfig() Config {
	return Config{
		TickDuration:     DefaultTickDuration,
		VictoryCondition: mission.Elimination,
		SurvivalTurns:    mission.DefaultSurvivalTurns,
		InitDelay:        DefaultInitDelay,
		TickSettle:       DefaultTickSettle,
	}
}

// WorldReady is emitted when START_GAME builds a world and when RESET_GAME
// drops it (World is nil then).
type WorldReady struct {
	World *world.World
}

// TickProcessed is emitted after every processed tick.
type TickProcessed struct {
	World        *world.World
	Tick         int
	Turn         int
	MissionTimer int
	TickDuration time.Duration
	MissionTime  mission.Clock
	Manual       bool
	Executed     []orders.Record
	SitRep       string
}

// Finished is emitted when the machine reaches victory or defeat.
type Finished struct {
	Result mission.Result
	Turns  int
	Ticks  int
}

// Machine is the game loop state machine. Not safe for concurrent use.
type Machine struct {
	cfg    Config
	log    *zap.Logger
	bus    *event.Bus
	timers *timer.Scheduler[Event]
	runner *coresys.Runner

	state State

	world            *world.World
	currentTick      int
	tickDuration     time.Duration
	lastTickTime     time.Time
	isRealTime       bool
	turnCount        int
	missionTimer     int
	missionTimeLimit int
	clock            mission.Clock

	pending   []orders.Order
	active    []orders.Order
	completed *ring.Buffer[orders.Record]
	logs      *ring.Buffer[string]
	sitreps   *ring.Buffer[string]

	victoryCondition mission.Condition
	err              string
	outcome          mission.Result

	deferred []Event
}

// New creates a machine in the idle state. bus may be nil when nobody
// listens for notifications.
func New(cfg Config, log *zap.Logger, bus *event.Bus) *Machine {
	cfg.applyDefaults()
	return &Machine{
		cfg:              cfg,
		log:              log,
		bus:              bus,
		timers:           timer.NewScheduler[Event](),
		tickDuration:     cfg.TickDuration,
		lastTickTime:     cfg.Now(),
		isRealTime:       cfg.RealTime,
		missionTimeLimit: cfg.MissionTimeLimit,
		clock:            mission.Clock{Start: cfg.MissionStart},
		completed:        ring.New[orders.Record](CompletedCap),
		logs:             ring.New[string](LogCap),
		sitreps:          ring.New[string](SitRepCap),
		victoryCondition: cfg.VictoryCondition,
	}
}

func (m *Machine) State() State            { return m.state }
func (m *Machine) World() *world.World     { return m.world }
func (m *Machine) Err() string             { return m.err }
func (m *Machine) Outcome() mission.Result { return m.outcome }

// Send delivers one event. Events that the current state does not accept
// are ignored and reported as false. While running, victory and defeat are
// re-evaluated after every accepted event.
func (m *Machine) Send(ev Event) bool {
	before := m.state
	if !m.dispatch(ev) {
		m.log.Debug("loop event ignored",
			zap.String("event", string(ev.Type())),
			zap.Stringer("state", m.state))
		return false
	}
	if m.state.Phase == Running {
		m.checkOutcome()
	}
	if m.state != before {
		m.log.Debug("loop transition",
			zap.String("event", string(ev.Type())),
			zap.Stringer("from", before),
			zap.Stringer("to", m.state))
	}
	return true
}

// Advance moves the machine's virtual clock by d and delivers every timer
// that comes due. Returns the number of timer events delivered.
func (m *Machine) Advance(d time.Duration) int {
	return m.timers.Advance(d, func(f timer.Fired[Event]) {
		ev := f.Event
		if _, ok := ev.(Tick); ok {
			ev = Tick{Timestamp: m.cfg.Now()}
		}
		m.Send(ev)
	})
}

// NextDue returns how long until the next timer fires.
func (m *Machine) NextDue() (time.Duration, bool) {
	return m.timers.NextDue()
}

func (m *Machine) dispatch(ev Event) bool {
	switch m.state.Phase {
	case Idle:
		switch e := ev.(type) {
		case StartGame:
			m.initialize()
			return true
		case ResetGame:
			m.reset()
			return true
		case Error:
			m.fail(e.Err)
			return true
		}
	case Initializing:
		switch e := ev.(type) {
		case initDone:
			m.pushLog("Game started")
			m.enterRunning()
			return true
		case Error:
			m.fail(e.Err)
			return true
		}
	case Running:
		return m.dispatchRunning(ev)
	case Paused:
		switch e := ev.(type) {
		case ResumeGame:
			m.pushLog("Game resumed")
			m.enterRunning()
			return true
		case SubmitOrder:
			m.addOrder(e.Order)
			m.pushLog("Order queued while game is paused")
			return true
		case ResetGame:
			m.reset()
			return true
		case Error:
			m.fail(e.Err)
			return true
		}
	case Failed:
		switch ev.(type) {
		case StartGame:
			m.initialize()
			return true
		case ResetGame:
			m.reset()
			return true
		}
	case Victory, Defeat:
		if _, ok := ev.(ResetGame); ok {
			m.reset()
			return true
		}
	}
	return false
}

func (m *Machine) dispatchRunning(ev Event) bool {
	switch e := ev.(type) {
	case SubmitOrder:
		m.addOrder(e.Order)
		return true
	case PauseGame:
		m.leaveRunning()
		m.state = State{Phase: Paused}
		m.pushLog("Game paused")
		return true
	case SetRealTime:
		m.isRealTime = e.Enabled
		if e.Enabled {
			m.pushLog("Game mode: Real-time")
		} else {
			m.pushLog("Game mode: Turn-based")
		}
		m.timers.Cancel(timerSettle)
		m.enterMode(m.configuredMode())
		return true
	case ChangeTickSpeed:
		if e.Duration < 0 {
			m.log.Warn("negative tick speed rejected", zap.Duration("duration", e.Duration))
			return false
		}
		m.tickDuration = e.Duration
		m.pushLog(fmt.Sprintf("Tick speed changed to %dms", e.Duration.Milliseconds()))
		if m.timers.Active(timerGame) {
			m.timers.Every(timerGame, m.tickDuration, Tick{})
		}
		return true
	case MissionComplete:
		m.pushLog("Mission completed successfully!")
		m.finish(mission.Result{Outcome: mission.Victory, Reason: "mission reported complete"})
		return true
	case MissionFailed:
		m.pushLog("Mission failed!")
		m.finish(mission.Result{Outcome: mission.Defeat, Reason: "mission reported failed"})
		return true
	case Error:
		m.fail(e.Err)
		return true
	}

	switch m.state.Mode {
	case TurnBased:
		switch ev.(type) {
		case AdvanceTick:
			m.processTick(ev)
			return true
		case EndTurn:
			m.advanceTurn()
			m.processTick(ev)
			return true
		}
	case RealTime:
		switch ev.(type) {
		case Tick:
			m.processTick(ev)
			return true
		case EndTurn:
			m.advanceTurn()
			return true
		}
	case ProcessingTick:
		switch ev.(type) {
		case tickSettled:
			m.settle()
			return true
		case AdvanceTick, EndTurn, Tick:
			return m.deferEvent(ev)
		}
	}
	return false
}

func (m *Machine) configuredMode() Mode {
	if m.isRealTime {
		return RealTime
	}
	return TurnBased
}

func (m *Machine) initialize() {
	m.timers.Clear()
	w, err := m.cfg.NewWorld()
	if err != nil {
		m.fail(fmt.Sprintf("initialize world: %v", err))
		return
	}
	m.world = w
	m.runner = system.NewRunner(w, m.onCasualty)
	m.currentTick = 0
	m.turnCount = 0
	m.missionTimer = 0
	m.clock = mission.Clock{Start: m.cfg.MissionStart}
	m.lastTickTime = m.cfg.Now()
	m.pending = nil
	m.active = nil
	m.deferred = nil
	m.completed.Clear()
	m.logs.Clear()
	m.sitreps.Clear()
	m.err = ""
	m.outcome = mission.Result{}
	m.pushLog("Game initialized")

	m.state = State{Phase: Initializing}
	m.timers.After(timerInit, m.cfg.InitDelay, initDone{})
	m.emit(WorldReady{World: w})
	m.log.Info("game initialized",
		zap.Int("units", w.UnitCount()),
		zap.String("victory_condition", string(m.victoryCondition)))
}

func (m *Machine) enterRunning() {
	m.state = State{Phase: Running}
	m.enterMode(m.configuredMode())
}

func (m *Machine) enterMode(mode Mode) {
	m.state.Mode = mode
	switch mode {
	case TurnBased:
		m.timers.Cancel(timerGame)
		m.pushLog("Turn-based mode active")
	case RealTime:
		m.timers.Every(timerGame, m.tickDuration, Tick{})
		m.pushLog("Real-time mode active")
	}
}

// leaveRunning stops everything owned by the running state.
func (m *Machine) leaveRunning() {
	m.timers.Cancel(timerGame)
	m.timers.Cancel(timerSettle)
	m.deferred = nil
}

// settle returns from processingTick to the configured mode without
// re-entering it, so the real-time cadence is not reset by every tick.
func (m *Machine) settle() {
	m.state.Mode = m.configuredMode()
	if m.state.Mode == RealTime && !m.timers.Active(timerGame) {
		m.timers.Every(timerGame, m.tickDuration, Tick{})
	}
	if len(m.deferred) == 0 {
		return
	}
	next := m.deferred[0]
	m.deferred = m.deferred[1:]
	m.dispatchRunning(next)
}

// deferEvent holds a tick trigger that arrived while a tick was still
// settling. Timer ticks coalesce; at most one is held.
func (m *Machine) deferEvent(ev Event) bool {
	if _, ok := ev.(Tick); ok {
		for _, d := range m.deferred {
			if _, dup := d.(Tick); dup {
				return true
			}
		}
	}
	if len(m.deferred) >= maxDeferred {
		m.log.Warn("tick trigger dropped", zap.String("event", string(ev.Type())))
		return false
	}
	m.deferred = append(m.deferred, ev)
	return true
}

func (m *Machine) addOrder(o orders.Order) {
	o = o.WithID()
	m.pending = append(m.pending, o)
	m.pushLog(fmt.Sprintf("Order received: %s for %s", o.Action, o.Unit))
}

func (m *Machine) advanceTurn() {
	m.turnCount++
	m.pushLog(fmt.Sprintf("--- TURN %d BEGINS ---", m.turnCount))
}

func (m *Machine) finish(r mission.Result) {
	m.leaveRunning()
	m.outcome = r
	if r.Outcome == mission.Victory {
		m.state = State{Phase: Victory}
		m.pushLog("MISSION ACCOMPLISHED! Victory achieved.")
	} else {
		m.state = State{Phase: Defeat}
		m.pushLog("MISSION FAILED! Defeat conditions met.")
	}
	m.pushLog(fmt.Sprintf("Final stats: %d turns, %d ticks", m.turnCount, m.currentTick))
	m.emit(Finished{Result: r, Turns: m.turnCount, Ticks: m.currentTick})
	m.log.Info("mission finished",
		zap.Stringer("outcome", r.Outcome),
		zap.String("reason", r.Reason),
		zap.Int("turns", m.turnCount),
		zap.Int("ticks", m.currentTick))
}

func (m *Machine) fail(reason string) {
	m.timers.Clear()
	m.deferred = nil
	m.err = reason
	m.pushLog("ERROR: " + reason)
	m.state = State{Phase: Failed}
	m.pushLog("Game encountered an error: " + reason)
	m.log.Warn("game loop error", zap.String("error", reason))
}

func (m *Machine) reset() {
	m.timers.Clear()
	m.world = nil
	m.runner = nil
	m.currentTick = 0
	m.turnCount = 0
	m.missionTimer = 0
	m.clock = mission.Clock{Start: m.cfg.MissionStart}
	m.pending = nil
	m.active = nil
	m.deferred = nil
	m.completed.Clear()
	m.logs.Clear()
	m.sitreps.Clear()
	m.err = ""
	m.outcome = mission.Result{}
	m.pushLog("Game reset")
	m.state = State{Phase: Idle}
	m.emit(WorldReady{})
}

func (m *Machine) checkOutcome() {
	r := mission.Evaluate(m.world, m.victoryCondition, mission.Progress{
		TurnCount:     m.turnCount,
		MissionTimer:  m.missionTimer,
		TimeLimit:     m.missionTimeLimit,
		SurvivalTurns: m.cfg.SurvivalTurns,
	})
	if r.Decided() {
		m.finish(r)
	}
}

func (m *Machine) onCasualty(u *world.Unit) {
	m.pushLog(fmt.Sprintf("%s (%s) eliminated in %s", u.Name, u.Faction, u.Zone))
}

func (m *Machine) pushLog(line string) {
	m.logs.Push(line)
}

func (m *Machine) emit(msg any) {
	if m.bus == nil {
		return
	}
	switch v := msg.(type) {
	case WorldReady:
		event.Emit(m.bus, v)
	case TickProcessed:
		event.Emit(m.bus, v)
	case Finished:
		event.Emit(m.bus, v)
	}
}
