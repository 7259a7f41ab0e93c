package system

import (
	"time"

	coresys "github.com/wartactics/server/internal/core/system"
	"github.com/wartactics/server/internal/world"
)

// CasualtySystem marks units whose morale has collapsed to zero as
// eliminated. Removal happens in the cleanup phase. Phase Casualty.
type CasualtySystem struct {
	world      *world.World
	onCasualty func(*world.Unit)
}

// NewCasualtySystem creates the system. onCasualty may be nil.
func NewCasualtySystem(w *world.World, onCasualty func(*world.Unit)) *CasualtySystem {
	return &CasualtySystem{world: w, onCasualty: onCasualty}
}

func (s *CasualtySystem) Phase() coresys.Phase { return coresys.PhaseCasualty }

func (s *CasualtySystem) Update(_ time.Duration) {
	s.world.EachUnit(func(u *world.Unit) {
		if u.Morale > 0 {
			return
		}
		s.world.MarkCasualty(u)
		if s.onCasualty != nil {
			s.onCasualty(u)
		}
	})
}
