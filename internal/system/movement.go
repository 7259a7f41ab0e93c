package system

import (
	"time"

	coresys "github.com/wartactics/server/internal/core/system"
	"github.com/wartactics/server/internal/world"
)

// MovementSystem resolves pending zone hops (Phase Movement).
type MovementSystem struct {
	world *world.World
}

func NewMovementSystem(w *world.World) *MovementSystem {
	return &MovementSystem{world: w}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *MovementSystem) Update(dt time.Duration) {
	world.Movement(s.world, dt.Seconds())
}
