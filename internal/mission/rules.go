// Package mission decides when a mission is won or lost and keeps the
// mission clock used for order deadlines and report timestamps.
package mission

import (
	"fmt"

	"github.com/wartactics/server/internal/world"
)

// Condition selects what counts as victory.
type Condition string

const (
	Elimination Condition = "elimination" // no hostile units left
	Occupation  Condition = "occupation"  // every objective held by a friendly unit
	Survival    Condition = "survival"    // enough turns survived
	TimeLimit   Condition = "time_limit"  // still standing when the time limit expires
)

// DefaultSurvivalTurns is the survival threshold when none is configured.
const DefaultSurvivalTurns = 20

func (c Condition) Valid() bool {
	switch c {
	case Elimination, Occupation, Survival, TimeLimit:
		return true
	}
	return false
}

// ParseCondition accepts the configuration spelling of a condition.
func ParseCondition(s string) (Condition, error) {
	c := Condition(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown victory condition %q", s)
	}
	return c, nil
}

type Outcome int

const (
	None Outcome = iota
	Victory
	Defeat
)

func (o Outcome) String() string {
	switch o {
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	default:
		return "none"
	}
}

// Progress is the part of the game state the rules read besides the world.
type Progress struct {
	TurnCount     int
	MissionTimer  int // ticks elapsed
	TimeLimit     int // ticks, 0 for none
	SurvivalTurns int // 0 uses DefaultSurvivalTurns
}

// Result is an outcome and the reason shown to the player.
type Result struct {
	Outcome Outcome
	Reason  string
}

func (r Result) Decided() bool { return r.Outcome != None }

// Evaluate applies the rules in a fixed precedence:
//
//  1. defeat when no friendly unit is left
//  2. time limit expiry: victory for TimeLimit, defeat otherwise
//  3. victory by condition
//
// An empty world has no friendly units and is a defeat. A nil world means
// no scenario is loaded yet and never decides anything.
func Evaluate(w *world.World, cond Condition, p Progress) Result {
	if w == nil {
		return Result{}
	}
	friendlies := w.CountUnits(world.Friendly)
	if friendlies == 0 {
		return Result{Outcome: Defeat, Reason: "all friendly units lost"}
	}
	if p.TimeLimit > 0 && p.MissionTimer >= p.TimeLimit {
		if cond == TimeLimit {
			return Result{Outcome: Victory, Reason: "held until the time limit"}
		}
		return Result{Outcome: Defeat, Reason: "mission time limit expired"}
	}
	switch cond {
	case Elimination:
		if friendlies > 0 && w.CountUnits(world.Hostile) == 0 {
			return Result{Outcome: Victory, Reason: "all hostile units eliminated"}
		}
	case Occupation:
		if friendlies > 0 && objectivesHeld(w) {
			return Result{Outcome: Victory, Reason: "all objectives secured"}
		}
	case Survival:
		threshold := p.SurvivalTurns
		if threshold <= 0 {
			threshold = DefaultSurvivalTurns
		}
		if p.TurnCount >= threshold {
			return Result{Outcome: Victory, Reason: fmt.Sprintf("survived %d turns", p.TurnCount)}
		}
	}
	return Result{}
}

func objectivesHeld(w *world.World) bool {
	objs := w.Objectives()
	if len(objs) == 0 {
		return false
	}
	for _, o := range objs {
		if !w.Holds(world.Friendly, o.ID) {
			return false
		}
	}
	return true
}
