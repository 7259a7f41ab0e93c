package loop

// Phase is the top-level state of the loop machine.
type Phase int

const (
	Idle Phase = iota
	Initializing
	Running
	Paused
	Victory
	Defeat
	Failed // the "error" state
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Initializing:
		return "initializing"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Final reports whether the phase only leaves on reset.
func (p Phase) Final() bool { return p == Victory || p == Defeat }

// Mode is the substate of Running.
type Mode int

const (
	TurnBased Mode = iota
	RealTime
	ProcessingTick
)

func (m Mode) String() string {
	switch m {
	case TurnBased:
		return "turnBased"
	case RealTime:
		return "realTime"
	case ProcessingTick:
		return "processingTick"
	default:
		return "unknown"
	}
}

// State is the composite machine state. Mode is only meaningful while
// Phase is Running.
type State struct {
	Phase Phase
	Mode  Mode
}

// String renders the state path, e.g. "running.turnBased".
func (s State) String() string {
	if s.Phase == Running {
		return s.Phase.String() + "." + s.Mode.String()
	}
	return s.Phase.String()
}

// Matches reports whether s is at or below the given path, so that
// "running" matches every running substate.
func (s State) Matches(path string) bool {
	if path == s.Phase.String() {
		return true
	}
	return path == s.String()
}
