package terminal

import (
	"time"

	coresys "github.com/wartactics/server/internal/core/system"
)

// Clock is the part of the game session advanced by wall-clock time.
type Clock interface {
	Advance(d time.Duration)
}

// ClockSystem feeds elapsed frame time to the game session, which turns it
// into tick timers and order delays.
type ClockSystem struct {
	game Clock
}

func NewClockSystem(game Clock) *ClockSystem {
	return &ClockSystem{game: game}
}

func (s *ClockSystem) Phase() coresys.Phase { return coresys.PhaseClock }

func (s *ClockSystem) Update(dt time.Duration) {
	s.game.Advance(dt)
}
