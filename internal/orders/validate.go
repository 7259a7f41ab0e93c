package orders

import (
	"errors"
	"fmt"

	"github.com/wartactics/server/internal/world"
)

var (
	ErrNoWorld             = errors.New("no game world available")
	ErrUnitNotFound        = errors.New("unit not found")
	ErrDestinationNotFound = errors.New("destination not found")
	ErrTargetNotFound      = errors.New("target not found")
	ErrMissingDestination  = errors.New("move order requires a destination")
	ErrMissingTarget       = errors.New("attack order requires a target")
	ErrUnknownAction       = errors.New("unknown action")
	ErrUnsupportedAction   = errors.New("unsupported action")
)

// ValidationError carries the user-facing message for one failed check.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return e.Err }

// Check runs every referential check against w and returns all failures.
// Checks are independent; one failure never hides another.
func Check(o Order, w *world.World) []error {
	if w == nil {
		return []error{&ValidationError{Msg: "No game world available", Err: ErrNoWorld}}
	}
	var errs []error
	if _, ok := w.UnitByName(o.Unit); !ok {
		errs = append(errs, &ValidationError{Msg: fmt.Sprintf("Unit %q not found", o.Unit), Err: ErrUnitNotFound})
	}
	switch o.Action {
	case Move:
		if o.Destination == "" {
			errs = append(errs, &ValidationError{Msg: "Move order requires a destination", Err: ErrMissingDestination})
		} else if _, ok := w.Terrain(o.Destination); !ok {
			errs = append(errs, &ValidationError{Msg: fmt.Sprintf("Destination %q not found", o.Destination), Err: ErrDestinationNotFound})
		}
	case Attack:
		if o.Target == "" {
			errs = append(errs, &ValidationError{Msg: "Attack order requires a target", Err: ErrMissingTarget})
		} else if _, ok := w.UnitByName(o.Target); !ok {
			errs = append(errs, &ValidationError{Msg: fmt.Sprintf("Target %q not found", o.Target), Err: ErrTargetNotFound})
		}
	case Defend, Retreat:
		if o.Destination != "" {
			if _, ok := w.Terrain(o.Destination); !ok {
				errs = append(errs, &ValidationError{Msg: fmt.Sprintf("Destination %q not found", o.Destination), Err: ErrDestinationNotFound})
			}
		}
	case Support:
	default:
		errs = append(errs, &ValidationError{Msg: fmt.Sprintf("Unknown action %q", o.Action), Err: ErrUnknownAction})
	}
	return errs
}

// Validate returns the messages of Check. An empty result means the order
// may be executed.
func Validate(o Order, w *world.World) []string {
	errs := Check(o, w)
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return msgs
}
