package world

import "github.com/wartactics/server/internal/core/ecs"

// UnitType selects a unit's baseline combat stats and command personality.
type UnitType string

const (
	Infantry  UnitType = "Infantry"
	Recon     UnitType = "Recon"
	Armor     UnitType = "Armor"
	Engineers UnitType = "Engineers"
	Artillery UnitType = "Artillery"
	UAV       UnitType = "UAV"
)

// UnitTypes lists every unit type in a stable order.
var UnitTypes = []UnitType{Infantry, Recon, Armor, Engineers, Artillery, UAV}

// Valid reports whether t is one of the known unit types.
func (t UnitType) Valid() bool {
	_, ok := baseStats[t]
	return ok
}

type Faction string

const (
	Friendly Faction = "friendly"
	Hostile  Faction = "hostile"
	Neutral  Faction = "neutral"
)

func (f Faction) Valid() bool {
	return f == Friendly || f == Hostile || f == Neutral
}

// Opposes reports whether units of f and o fight each other. Neutral units
// are never combatants.
func (f Faction) Opposes(o Faction) bool {
	return f != o && f != Neutral && o != Neutral
}

// UnitState is resolved by the systems; orders only request movement or
// engagement.
type UnitState string

const (
	StateIdle       UnitState = "idle"
	StateMoving     UnitState = "moving"
	StateEngaged    UnitState = "engaged"
	StatePinned     UnitState = "pinned"
	StateRetreating UnitState = "retreating"
)

// Unit is a squad on the map.
type Unit struct {
	Entity  ecs.EntityID // zero until spawned
	ID      string       // uuid
	Type    UnitType
	Name    string // unique, referenced by orders
	Faction Faction

	Zone        string // terrain node id
	IsMoving    bool
	Destination string // terrain node id, "" when none

	Firepower  float64
	Range      float64
	Ammunition float64
	Initiative float64

	// 0-100 gauges
	Morale    float64
	Supplies  float64
	Readiness float64

	State UnitState
}

// HasDestination reports whether a move order is pending resolution.
func (u *Unit) HasDestination() bool { return u.Destination != "" }

type unitStats struct {
	firepower  float64
	rng        float64
	ammunition float64
	initiative float64
}

var baseStats = map[UnitType]unitStats{
	Infantry:  {firepower: 5, rng: 2, ammunition: 100, initiative: 70},
	Recon:     {firepower: 3, rng: 4, ammunition: 50, initiative: 90},
	Armor:     {firepower: 10, rng: 3, ammunition: 50, initiative: 60},
	Engineers: {firepower: 2, rng: 1, ammunition: 30, initiative: 65},
	Artillery: {firepower: 8, rng: 6, ammunition: 30, initiative: 40},
	UAV:       {firepower: 0, rng: 8, ammunition: 0, initiative: 100},
}
