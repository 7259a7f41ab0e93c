package system

import "time"

// Phase defines execution ordering within a single simulation step.
type Phase int

const (
	PhaseMovement Phase = iota // 0: resolve zone hops
	PhaseCombat                // 1: exchange fire between co-located enemies
	PhaseMorale                // 2: combat stress, recovery, retreat triggers
	PhaseCasualty              // 3: mark broken units for removal
	PhaseCleanup               // 4: destroy queued entities

	// Server frame phases, used by the terminal driver's runner.
	PhaseInput  // 5: drain terminal sessions
	PhaseClock  // 6: advance the game session
	PhaseOutput // 7: flush terminal sessions
)

func (p Phase) String() string {
	switch p {
	case PhaseMovement:
		return "movement"
	case PhaseCombat:
		return "combat"
	case PhaseMorale:
		return "morale"
	case PhaseCasualty:
		return "casualty"
	case PhaseCleanup:
		return "cleanup"
	case PhaseInput:
		return "input"
	case PhaseClock:
		return "clock"
	case PhaseOutput:
		return "output"
	default:
		return "unknown"
	}
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
