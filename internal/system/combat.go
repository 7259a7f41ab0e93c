package system

import (
	"time"

	coresys "github.com/wartactics/server/internal/core/system"
	"github.com/wartactics/server/internal/world"
)

// CombatSystem resolves fire between engaged units (Phase Combat).
type CombatSystem struct {
	world *world.World
}

func NewCombatSystem(w *world.World) *CombatSystem {
	return &CombatSystem{world: w}
}

func (s *CombatSystem) Phase() coresys.Phase { return coresys.PhaseCombat }

func (s *CombatSystem) Update(dt time.Duration) {
	world.Combat(s.world, dt.Seconds())
}
