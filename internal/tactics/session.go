// Package tactics couples the game loop and game logic machines into one
// playable session. Terminal text becomes orders for the logic machine,
// accepted orders are queued on the loop machine, processed ticks flow back
// to the logic machine, and the logic machine's verdict ends the loop.
package tactics

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wartactics/server/internal/command"
	"github.com/wartactics/server/internal/core/event"
	"github.com/wartactics/server/internal/logic"
	"github.com/wartactics/server/internal/loop"
	"github.com/wartactics/server/internal/mission"
	"github.com/wartactics/server/internal/orders"
	"github.com/wartactics/server/internal/persist"
	"github.com/wartactics/server/internal/scripting"
	"github.com/wartactics/server/internal/world"
)

var (
	ErrNotRecognized = errors.New("command not recognized")
	ErrNotRunning    = errors.New("game is not running")
	ErrBusy          = errors.New("order backlog full")
)

const drainRounds = 32

// Script receives mission hooks and returns scripted injections.
type Script interface {
	OnStart(info scripting.MissionInfo) []scripting.Injection
	OnTick(info scripting.TickInfo) []scripting.Injection
}

// Recorder persists the mission as it is played.
type Recorder interface {
	Begin(name, condition string) error
	Tick(orders []persist.OrderRow, sitrep persist.SitRepRow)
	Finish(outcome, reason string, turns, ticks int)
}

type Options struct {
	Name     string
	Briefing string
	Loop     loop.Config
	Logic    logic.Config
	Script   Script   // optional
	Recorder Recorder // optional
}

// Session is not safe for concurrent use; the game loop goroutine owns it.
type Session struct {
	opts  Options
	log   *zap.Logger
	bus   *event.Bus
	loop  *loop.Machine
	logic *logic.Machine

	listeners []func(string)
}

// New wires both machines. Logic rules left unset follow the loop config.
func New(opts Options, log *zap.Logger) *Session {
	if opts.Logic.VictoryCondition == "" {
		opts.Logic.VictoryCondition = opts.Loop.VictoryCondition
	}
	if opts.Logic.SurvivalTurns == 0 {
		opts.Logic.SurvivalTurns = opts.Loop.SurvivalTurns
	}
	if opts.Logic.MissionStart == 0 {
		opts.Logic.MissionStart = opts.Loop.MissionStart
	}
	s := &Session{opts: opts, log: log, bus: event.NewBus()}
	opts.Logic.Executor = orders.ExecutorFunc(s.forward)
	s.loop = loop.New(opts.Loop, log.Named("loop"), s.bus)
	s.logic = logic.New(opts.Logic, log.Named("logic"), s.bus)

	event.Subscribe(s.bus, s.onWorldReady)
	event.Subscribe(s.bus, s.onTickProcessed)
	event.Subscribe(s.bus, s.onFinished)
	event.Subscribe(s.bus, s.onVerdict)
	event.Subscribe(s.bus, s.onOrderCompleted)
	event.Subscribe(s.bus, s.onOrderFailed)
	event.Subscribe(s.bus, s.onSitRep)
	return s
}

func (s *Session) Loop() *loop.Machine   { return s.loop }
func (s *Session) Logic() *logic.Machine { return s.logic }

// OnMessage registers a receiver for operator-facing lines.
func (s *Session) OnMessage(fn func(string)) {
	s.listeners = append(s.listeners, fn)
}

// Issue parses terminal text and hands the order to the logic machine.
func (s *Session) Issue(text string) (orders.Order, error) {
	o, ok := command.Parse(text)
	if !ok {
		return orders.Order{}, ErrNotRecognized
	}
	o = o.WithID()
	if s.logic.State() == logic.Idle {
		return o, ErrNotRunning
	}
	if !s.logic.Send(logic.ValidateOrder{Order: o}) {
		return o, ErrBusy
	}
	s.drain()
	return o, nil
}

// SendLoop delivers an event to the loop machine.
func (s *Session) SendLoop(ev loop.Event) bool {
	ok := s.loop.Send(ev)
	s.drain()
	return ok
}

// SendLogic delivers an event to the logic machine.
func (s *Session) SendLogic(ev logic.Event) bool {
	ok := s.logic.Send(ev)
	s.drain()
	return ok
}

// Advance moves both machines' virtual clocks by d, stepping from one due
// timer to the next so cross-machine messages keep their order.
func (s *Session) Advance(d time.Duration) {
	for d > 0 {
		step := d
		if n, ok := s.nextDue(); ok && n < step {
			step = max(n, time.Nanosecond)
		}
		s.loop.Advance(step)
		s.logic.Advance(step)
		s.drain()
		d -= step
	}
}

func (s *Session) nextDue() (time.Duration, bool) {
	a, okA := s.loop.NextDue()
	b, okB := s.logic.NextDue()
	switch {
	case okA && okB:
		return min(a, b), true
	case okA:
		return a, true
	default:
		return b, okB
	}
}

// Snapshot is the combined view of both machines.
type Snapshot struct {
	Loop  loop.Snapshot
	Logic logic.Snapshot
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{Loop: s.loop.Snapshot(), Logic: s.logic.Snapshot()}
}

func (s *Session) drain() {
	s.bus.Drain(drainRounds)
}

// forward is the logic machine's executor: accepted orders are queued on
// the loop machine and applied to the world during tick processing.
func (s *Session) forward(o orders.Order, _ *world.World) error {
	if !s.loop.Send(loop.SubmitOrder{Order: o}) {
		return ErrNotRunning
	}
	return nil
}

func (s *Session) onWorldReady(e loop.WorldReady) {
	s.logic.Send(logic.WorldReady{World: e.World})
	if e.World == nil {
		s.say("Game reset")
		return
	}
	if s.opts.Recorder != nil {
		cond := s.opts.Loop.VictoryCondition
		if cond == "" {
			cond = mission.Elimination
		}
		if err := s.opts.Recorder.Begin(s.opts.Name, string(cond)); err != nil {
			s.log.Warn("mission recorder unavailable", zap.Error(err))
		}
	}
	if s.opts.Script != nil {
		s.inject(s.opts.Script.OnStart(scripting.MissionInfo{Name: s.opts.Name, Briefing: s.opts.Briefing}))
	}
	s.say(fmt.Sprintf("Mission %q initialized: %d units deployed", s.opts.Name, e.World.UnitCount()))
}

func (s *Session) onTickProcessed(e loop.TickProcessed) {
	s.logic.Send(logic.GameLoopTick{
		World:        e.World,
		Tick:         e.Tick,
		Turn:         e.Turn,
		MissionTimer: e.MissionTimer,
		TickDuration: e.TickDuration,
		MissionTime:  e.MissionTime,
	})
	s.say(e.SitRep)
	for _, rec := range e.Executed {
		if rec.Status == orders.StatusFailed {
			s.say(fmt.Sprintf("Order failed on tick %d: %s (%v)", rec.Tick, rec.Order, rec.Errors))
		}
	}

	if s.opts.Recorder != nil {
		rows := make([]persist.OrderRow, len(e.Executed))
		for i, rec := range e.Executed {
			rows[i] = orderRow(rec)
		}
		s.opts.Recorder.Tick(rows, persist.SitRepRow{
			Tick:        e.Tick,
			MissionTime: e.MissionTime.Stamp(),
			Report:      e.SitRep,
		})
	}
	if s.opts.Script != nil && e.World != nil {
		s.inject(s.opts.Script.OnTick(s.tickInfo(e)))
	}
}

func (s *Session) onFinished(e loop.Finished) {
	if s.opts.Recorder != nil {
		s.opts.Recorder.Finish(e.Result.Outcome.String(), e.Result.Reason, e.Turns, e.Ticks)
	}
	if e.Result.Outcome == mission.Victory {
		s.say(fmt.Sprintf("MISSION ACCOMPLISHED: %s (%d turns, %d ticks)", e.Result.Reason, e.Turns, e.Ticks))
	} else {
		s.say(fmt.Sprintf("MISSION FAILED: %s (%d turns, %d ticks)", e.Result.Reason, e.Turns, e.Ticks))
	}
}

func (s *Session) onVerdict(e logic.Verdict) {
	switch e.Result.Outcome {
	case mission.Victory:
		s.loop.Send(loop.MissionComplete{})
	case mission.Defeat:
		s.loop.Send(loop.MissionFailed{})
	}
}

func (s *Session) onOrderCompleted(e logic.OrderCompleted) {
	s.say("Order confirmed: " + e.Order.String())
}

func (s *Session) onOrderFailed(e logic.OrderFailed) {
	verb := "failed"
	if e.Refused {
		verb = "refused"
	}
	s.say(fmt.Sprintf("Order %s: %s (%s)", verb, e.Order, e.Reason))
}

func (s *Session) onSitRep(e logic.SitRepFiled) {
	if e.Routine {
		return
	}
	s.say(e.SitRep.String())
}

// inject turns scripted injections into logic machine events.
func (s *Session) inject(in []scripting.Injection) {
	for _, inj := range in {
		switch inj.Kind {
		case scripting.InjectIntel:
			src := logic.IntelSource(inj.Source)
			if src == "" {
				src = logic.SourceSigint
			}
			s.logic.Send(logic.UpdateIntel{Source: src, Confidence: inj.Confidence, Content: inj.Content, Location: inj.Location})
		case scripting.InjectRecon:
			src := logic.ReconType(inj.Source)
			if src == "" {
				src = logic.ReconUAV
			}
			s.logic.Send(logic.ReconReport{Source: src, Location: inj.Location, Findings: inj.Content})
		case scripting.InjectJam:
			s.logic.Send(logic.CommunicationJammed{})
		case scripting.InjectRestore:
			s.logic.Send(logic.CommunicationRestored{})
		case scripting.InjectResupply:
			s.logic.Send(logic.Resupply{Unit: inj.Unit})
		case scripting.InjectSitRep:
			if inj.Unit != "" {
				s.logic.Send(logic.GenerateSitRep{Unit: inj.Unit})
			} else if inj.Content != "" {
				s.say(inj.Content)
			}
		}
	}
}

func (s *Session) tickInfo(e loop.TickProcessed) scripting.TickInfo {
	info := scripting.TickInfo{
		Tick:        e.Tick,
		Turn:        e.Turn,
		MissionTime: e.MissionTime.Stamp(),
		Comms:       string(s.logic.Comms()),
		Friendly:    e.World.CountUnits(world.Friendly),
		Hostile:     e.World.CountUnits(world.Hostile),
	}
	e.World.EachUnit(func(u *world.Unit) {
		info.Units = append(info.Units, scripting.UnitInfo{
			Name:    u.Name,
			Faction: string(u.Faction),
			Zone:    u.Zone,
			State:   string(u.State),
			Morale:  u.Morale,
		})
	})
	return info
}

func orderRow(rec orders.Record) persist.OrderRow {
	o := rec.Order
	return persist.OrderRow{
		OrderID:        o.ID,
		Tick:           rec.Tick,
		Unit:           o.Unit,
		Action:         string(o.Action),
		Target:         o.Target,
		Destination:    o.Destination,
		TimeConstraint: o.TimeConstraint,
		Modifiers:      o.Modifiers,
		Status:         string(rec.Status),
		Errors:         rec.Errors,
	}
}

func (s *Session) say(line string) {
	if line == "" {
		return
	}
	for _, fn := range s.listeners {
		fn(line)
	}
}
