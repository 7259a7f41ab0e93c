// Package world is the tactical entity world: units and terrain nodes stored
// as ECS components, the factories that create them, the order actions that
// mutate them, and the per-tick movement, combat and morale systems.
//
// A World is owned by the game loop goroutine. No locks.
package world

import (
	"errors"
	"fmt"

	"github.com/wartactics/server/internal/core/ecs"
)

var (
	ErrDuplicateUnit    = errors.New("duplicate unit name")
	ErrDuplicateTerrain = errors.New("duplicate terrain id")
	ErrUnknownZone      = errors.New("unknown zone")
)

// World joins unit and terrain component tables on the entity id.
type World struct {
	ecs     *ecs.World
	units   *ecs.PtrComponentStore[Unit]
	terrain *ecs.PtrComponentStore[TerrainNode]
	zones   map[string]ecs.EntityID // terrain id → entity
}

func New() *World {
	w := &World{
		ecs:     ecs.NewWorld(),
		units:   ecs.NewPtrComponentStore[Unit](),
		terrain: ecs.NewPtrComponentStore[TerrainNode](),
		zones:   make(map[string]ecs.EntityID),
	}
	w.ecs.Track(w.units)
	w.ecs.Track(w.terrain)
	return w
}

// ECS exposes the underlying entity world for the cleanup system.
func (w *World) ECS() *ecs.World { return w.ecs }

// AddTerrain places a terrain node. Connections may reference zones that are
// added later.
func (w *World) AddTerrain(t *TerrainNode) error {
	if _, dup := w.zones[t.ID]; dup {
		return fmt.Errorf("add terrain %q: %w", t.ID, ErrDuplicateTerrain)
	}
	t.Entity = w.ecs.CreateEntity()
	w.terrain.Set(t.Entity, t)
	w.zones[t.ID] = t.Entity
	return nil
}

// Spawn places a unit. Its zone must already exist and its name must be unique.
func (w *World) Spawn(u *Unit) error {
	if _, ok := w.Terrain(u.Zone); !ok {
		return fmt.Errorf("spawn %q in %q: %w", u.Name, u.Zone, ErrUnknownZone)
	}
	if _, dup := w.UnitByName(u.Name); dup {
		return fmt.Errorf("spawn %q: %w", u.Name, ErrDuplicateUnit)
	}
	u.Entity = w.ecs.CreateEntity()
	w.units.Set(u.Entity, u)
	return nil
}

// Remove destroys a unit immediately.
func (w *World) Remove(u *Unit) bool {
	if !w.units.Has(u.Entity) {
		return false
	}
	w.ecs.Destroy(u.Entity)
	return true
}

// RemoveFaction destroys every unit of f and returns how many were removed.
func (w *World) RemoveFaction(f Faction) int {
	doomed := w.Units(f)
	for _, u := range doomed {
		w.ecs.Destroy(u.Entity)
	}
	return len(doomed)
}

// MarkCasualty queues a unit for removal at the end of the tick.
func (w *World) MarkCasualty(u *Unit) {
	if w.units.Has(u.Entity) {
		w.ecs.MarkForDestruction(u.Entity)
	}
}

// UnitByName looks a unit up by its exact name.
func (w *World) UnitByName(name string) (*Unit, bool) {
	_, u, ok := ecs.Find(w.units, func(u *Unit) bool { return u.Name == name })
	return u, ok
}

func (w *World) Terrain(id string) (*TerrainNode, bool) {
	e, ok := w.zones[id]
	if !ok {
		return nil, false
	}
	return w.terrain.Get(e)
}

// AllUnits returns every unit in spawn order.
func (w *World) AllUnits() []*Unit {
	return ecs.Filter(w.units, nil)
}

// Units returns the units of one faction in spawn order.
func (w *World) Units(f Faction) []*Unit {
	return ecs.Filter(w.units, func(u *Unit) bool { return u.Faction == f })
}

// UnitsIn returns the units located in zone.
func (w *World) UnitsIn(zone string) []*Unit {
	return ecs.Filter(w.units, func(u *Unit) bool { return u.Zone == zone })
}

func (w *World) UnitCount() int { return w.units.Len() }

// CountUnits returns the number of units of faction f.
func (w *World) CountUnits(f Faction) int {
	return ecs.Count(w.units, func(u *Unit) bool { return u.Faction == f })
}

// Terrains returns every terrain node in insertion order.
func (w *World) Terrains() []*TerrainNode {
	return ecs.Filter(w.terrain, nil)
}

// Objectives returns the terrain nodes flagged as objectives.
func (w *World) Objectives() []*TerrainNode {
	return ecs.Filter(w.terrain, func(t *TerrainNode) bool { return t.Properties.IsObjective })
}

// Holds reports whether faction f has at least one unit in zone.
func (w *World) Holds(f Faction, zone string) bool {
	return ecs.Count(w.units, func(u *Unit) bool { return u.Faction == f && u.Zone == zone }) > 0
}

// EachUnit visits units in spawn order. fn must not spawn or remove units.
func (w *World) EachUnit(fn func(*Unit)) {
	w.units.Each(func(_ ecs.EntityID, u *Unit) { fn(u) })
}
