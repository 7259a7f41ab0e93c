package logic

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wartactics/server/internal/mission"
	"github.com/wartactics/server/internal/orders"
)

// validate is the validatingOrder entry. Invalid orders fail straight back
// to active; valid ones go on to the willingness check.
func (m *Machine) validate(o orders.Order) {
	o = o.WithID()
	m.current = &o
	m.state = ValidatingOrder
	m.validationErrors = orders.Validate(o, m.world)
	if len(m.validationErrors) > 0 {
		m.failOrder(strings.Join(m.validationErrors, "; "), false)
		return
	}
	m.checkWillingness()
}

// checkWillingness resolves checkingUnitWillingness: refusal first, then the
// cautious adaptation roll, otherwise straight to execution.
func (m *Machine) checkWillingness() {
	m.state = CheckingWillingness
	o := *m.current

	if reason := m.refusal(o); reason != "" {
		m.state = RefusingOrder
		m.validationErrors = []string{reason}
		m.fileSitRep(KindStatus, o.Unit,
			fmt.Sprintf("%s: Refusing %s order. Reason: %s", o.Unit, o.Action, reason), SeverityWarning)
		m.timers.After(timerOrder, RefuseDelay, refuseDone{})
		return
	}

	if m.personality(o.Unit).Type == Cautious && m.cfg.Rand.Float64() < m.cfg.AdaptChance {
		m.state = AdaptingOrder
		adapted := o.WithModifiers("request backup", "proceed with caution")
		m.current = &adapted
		m.fileSitRep(KindStatus, o.Unit,
			o.Unit+": Adapting orders. Reason: Tactical assessment suggests modified approach", SeverityWarning)
		m.timers.After(timerOrder, AdaptDelay, adaptDone{})
		return
	}

	m.beginExecution()
}

// refusal returns why the unit will not carry out o, or "" if it will.
func (m *Machine) refusal(o orders.Order) string {
	p := m.personality(o.Unit)
	if p.WillRefuseOrders {
		return "unit is refusing all orders"
	}
	if o.Action != orders.Attack {
		return ""
	}
	s, ok := m.supplies[o.Unit]
	if !ok {
		return ""
	}
	if s.Morale < p.MoraleThreshold {
		return fmt.Sprintf("morale too low for offensive action (%d%%)", s.Morale)
	}
	if s.Ammunition < supplyFloor {
		return fmt.Sprintf("insufficient ammunition (%d%%)", s.Ammunition)
	}
	return ""
}

// beginExecution is the executingOrder entry. A passed deadline fails the
// order before the executor sees it.
func (m *Machine) beginExecution() {
	m.state = ExecutingOrder
	o := *m.current

	if reason := m.deadlineViolation(o); reason != "" {
		m.failOrder(reason, false)
		return
	}
	if err := m.cfg.Executor.Execute(o, m.world); err != nil {
		m.failOrder(strings.Join(orders.Messages(err), "; "), false)
		return
	}
	m.fileSitRep(KindMovement, o.Unit, fmt.Sprintf("%s executing %s order", o.Unit, o.Action), SeverityInfo)
	m.timers.After(timerOrder, ExecuteDelay, executeDone{})
}

func (m *Machine) deadlineViolation(o orders.Order) string {
	if o.TimeConstraint == "" {
		return ""
	}
	passed, err := m.clock.Passed(o.TimeConstraint)
	if err != nil {
		m.log.Debug("time constraint ignored", zap.String("constraint", o.TimeConstraint), zap.Error(err))
		return ""
	}
	if !passed {
		return ""
	}
	deadline, _ := mission.ParseTime(o.TimeConstraint)
	return fmt.Sprintf("Time constraint violated for %s: %s passed", o.Unit, mission.FormatTime(deadline))
}

func (m *Machine) completeOrder() {
	o := *m.current
	m.validationErrors = nil
	m.log.Debug("order completed", zap.String("order", o.String()))
	m.emit(OrderCompleted{Order: o})
	m.enterActive()
}

func (m *Machine) refused() {
	reason := "order refused"
	if len(m.validationErrors) > 0 {
		reason = m.validationErrors[0]
	}
	m.failOrder(reason, true)
}

func (m *Machine) failOrder(reason string, refused bool) {
	o := *m.current
	m.log.Debug("order failed", zap.String("order", o.String()), zap.String("reason", reason))
	m.emit(OrderFailed{Order: o, Reason: reason, Refused: refused})
	m.enterActive()
}

func (m *Machine) personality(unit string) Personality {
	if p, ok := m.personalities[unit]; ok {
		return p
	}
	if m.world != nil {
		if u, ok := m.world.UnitByName(unit); ok {
			return PersonalityFor(u.Type)
		}
	}
	return PersonalityFor("")
}
