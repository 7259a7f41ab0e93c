package world

import "github.com/google/uuid"

// CreateUnit returns a fully initialized, unspawned unit with the baseline
// stats of its type. Unknown types fall back to Infantry stats.
func CreateUnit(t UnitType, name, zone string, faction Faction) *Unit {
	st, ok := baseStats[t]
	if !ok {
		st = baseStats[Infantry]
	}
	return &Unit{
		ID:         uuid.NewString(),
		Type:       t,
		Name:       name,
		Faction:    faction,
		Zone:       zone,
		Firepower:  st.firepower,
		Range:      st.rng,
		Ammunition: st.ammunition,
		Initiative: st.initiative,
		Morale:     100,
		Supplies:   100,
		Readiness:  100,
		State:      StateIdle,
	}
}

// CreateTerrain returns a terrain node whose id is derived from its name.
// Connections are given as zone ids.
func CreateTerrain(name string, t TerrainType, connections ...string) *TerrainNode {
	return CreateTerrainWithID(ZoneID(name), name, t, connections...)
}

// CreateTerrainWithID is CreateTerrain with an explicit id.
func CreateTerrainWithID(id, name string, t TerrainType, connections ...string) *TerrainNode {
	conns := make([]string, len(connections))
	copy(conns, connections)
	return &TerrainNode{
		ID:          id,
		Type:        t,
		Name:        name,
		Connections: conns,
		Cover:       t.Cover(),
		Properties: TerrainProperties{
			IsObjective:  t == Objective,
			MovementCost: 1,
		},
	}
}
