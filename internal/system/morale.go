package system

import (
	"time"

	coresys "github.com/wartactics/server/internal/core/system"
	"github.com/wartactics/server/internal/world"
)

// MoraleSystem drains, breaks and recovers unit morale (Phase Morale).
type MoraleSystem struct {
	world *world.World
}

func NewMoraleSystem(w *world.World) *MoraleSystem {
	return &MoraleSystem{world: w}
}

func (s *MoraleSystem) Phase() coresys.Phase { return coresys.PhaseMorale }

func (s *MoraleSystem) Update(dt time.Duration) {
	world.Morale(s.world, dt.Seconds())
}
