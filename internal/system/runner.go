package system

import (
	coresys "github.com/wartactics/server/internal/core/system"
	"github.com/wartactics/server/internal/world"
)

// NewRunner registers the tactical systems for w on a fresh runner.
// onCasualty is told about every unit eliminated during a tick; it may be nil.
func NewRunner(w *world.World, onCasualty func(*world.Unit)) *coresys.Runner {
	r := coresys.NewRunner()
	r.Register(NewMovementSystem(w))
	r.Register(NewCombatSystem(w))
	r.Register(NewMoraleSystem(w))
	r.Register(NewCasualtySystem(w, onCasualty))
	r.Register(NewCleanupSystem(w))
	return r
}
