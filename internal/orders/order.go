// Package orders defines tactical orders and the validator/executor that
// applies them to the entity world.
package orders

import (
	"strings"

	"github.com/google/uuid"
)

type Action string

const (
	Move    Action = "move"
	Attack  Action = "attack"
	Defend  Action = "defend"
	Retreat Action = "retreat"
	Support Action = "support"
)

func (a Action) Valid() bool {
	switch a {
	case Move, Attack, Defend, Retreat, Support:
		return true
	}
	return false
}

// Order is a directive for one unit. Which of Target and Destination is
// meaningful depends on Action.
type Order struct {
	ID             string   `json:"id,omitempty"` // assigned on submission
	Unit           string   `json:"unit"`         // unit name
	Action         Action   `json:"action"`
	Target         string   `json:"target,omitempty"`      // unit name, attack
	Destination    string   `json:"destination,omitempty"` // zone id, move/defend/retreat
	TimeConstraint string   `json:"time_constraint,omitempty"`
	Modifiers      []string `json:"modifiers,omitempty"`
}

// WithID returns a copy of o carrying a fresh id when it has none.
func (o Order) WithID() Order {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return o
}

// WithModifiers returns a copy of o with extra modifiers appended.
func (o Order) WithModifiers(mods ...string) Order {
	out := make([]string, 0, len(o.Modifiers)+len(mods))
	out = append(out, o.Modifiers...)
	o.Modifiers = append(out, mods...)
	return o
}

// String renders the order the way the terminal echoes it.
func (o Order) String() string {
	var b strings.Builder
	b.WriteString(string(o.Action))
	b.WriteString(" ")
	b.WriteString(o.Unit)
	switch {
	case o.Target != "":
		b.WriteString(" -> ")
		b.WriteString(o.Target)
	case o.Destination != "":
		b.WriteString(" -> ")
		b.WriteString(o.Destination)
	}
	if o.TimeConstraint != "" {
		b.WriteString(" before ")
		b.WriteString(o.TimeConstraint)
	}
	if len(o.Modifiers) > 0 {
		b.WriteString(" [")
		b.WriteString(strings.Join(o.Modifiers, ", "))
		b.WriteString("]")
	}
	return b.String()
}

// Status is the terminal state of an executed order.
type Status string

const (
	StatusExecuted Status = "executed"
	StatusFailed   Status = "failed"
	StatusRefused  Status = "refused"
)

// Record is an order moved into the completed history.
type Record struct {
	Order  Order
	Tick   int
	Status Status
	Errors []string
}
