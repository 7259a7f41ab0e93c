package system

import (
	"time"

	coresys "github.com/wartactics/server/internal/core/system"
	"github.com/wartactics/server/internal/world"
)

// CleanupSystem flushes the deferred entity destruction queue at tick end.
// Phase Cleanup.
type CleanupSystem struct {
	world *world.World
}

func NewCleanupSystem(w *world.World) *CleanupSystem {
	return &CleanupSystem{world: w}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.ECS().FlushDestroyQueue()
}
