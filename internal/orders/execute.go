package orders

import (
	"errors"
	"fmt"

	"github.com/wartactics/server/internal/world"
)

// Executor applies validated orders to a world.
type Executor interface {
	Execute(o Order, w *world.World) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(o Order, w *world.World) error

func (f ExecutorFunc) Execute(o Order, w *world.World) error { return f(o, w) }

// Direct executes orders immediately against the world.
var Direct Executor = ExecutorFunc(Execute)

// Execute applies o to w. It re-checks references so an order that went
// stale in a queue cannot mutate the world. Defend, retreat and support are
// accepted by the parser and validator but have no world effect yet; they
// fail with ErrUnsupportedAction.
func Execute(o Order, w *world.World) error {
	if errs := Check(o, w); len(errs) > 0 {
		return fmt.Errorf("execute %s: %w", o.Action, errors.Join(errs...))
	}
	unit, _ := w.UnitByName(o.Unit)
	switch o.Action {
	case Move:
		world.MoveUnit(unit, o.Destination)
	case Attack:
		target, _ := w.UnitByName(o.Target)
		world.EngageTarget(unit, target)
	default:
		return fmt.Errorf("execute %s for %s: %w", o.Action, o.Unit, ErrUnsupportedAction)
	}
	return nil
}

// Messages flattens an execution error into the user-facing lines stored on
// a completed order.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var msgs []string
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}
