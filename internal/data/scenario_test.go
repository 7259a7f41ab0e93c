package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wartactics/server/internal/logic"
	"github.com/wartactics/server/internal/mission"
	"github.com/wartactics/server/internal/world"
)

const sample = `
name: Operation Nightfall
victory_condition: occupation
mission_time_limit: 40
mission_start: dawn
terrain:
  - name: Alpha Ridge
    type: ridge
    connections: [Valley Beta]
  - name: Valley Beta
    type: valley
    connections: [alpha-ridge, hill-7]
  - id: hill-7
    name: Hill 7
    type: objective
    connections: [valley-beta]
units:
  - name: Alpha Squad
    type: Infantry
    faction: friendly
    zone: Alpha Ridge
    personality:
      type: cautious
      adaptive_threshold: 50
      morale_threshold: 60
  - name: Eagle Recon
    type: UAV
    faction: friendly
    zone: alpha-ridge
    supplies:
      ammunition: 0
      fuel: 60
      communications: true
      morale: 90
      fatigue: 0
  - name: Red Squad
    type: Armor
    faction: hostile
    zone: hill-7
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadScenario_Build(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, sample))
	require.NoError(t, err)
	assert.Equal(t, "Operation Nightfall", s.Name)
	assert.Equal(t, mission.Occupation, s.Condition(mission.Elimination))
	assert.Equal(t, 40, s.MissionTimeLimit)

	w, err := s.NewWorld()
	require.NoError(t, err)
	assert.Equal(t, 3, w.UnitCount())
	assert.Len(t, w.Terrains(), 3)

	ridge, ok := w.Terrain("alpha-ridge")
	require.True(t, ok)
	assert.Equal(t, []string{"valley-beta"}, ridge.Connections)
	assert.Equal(t, 80.0, ridge.Cover)

	objectives := w.Objectives()
	require.Len(t, objectives, 1)
	assert.Equal(t, "hill-7", objectives[0].ID)

	alpha, ok := w.UnitByName("Alpha Squad")
	require.True(t, ok)
	assert.Equal(t, "alpha-ridge", alpha.Zone)
	red, _ := w.UnitByName("Red Squad")
	assert.Equal(t, world.Hostile, red.Faction)
	assert.Equal(t, 10.0, red.Firepower)
}

func TestScenario_Overrides(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, sample))
	require.NoError(t, err)

	p := s.Personalities()
	require.Len(t, p, 1)
	assert.Equal(t, logic.Personality{Type: logic.Cautious, AdaptiveThreshold: 50, MoraleThreshold: 60}, p["Alpha Squad"])

	sup := s.Supplies()
	require.Len(t, sup, 1)
	assert.Equal(t, 60, sup["Eagle Recon"].Fuel)
	assert.Equal(t, 0, sup["Eagle Recon"].Ammunition)
}

func TestScenario_DefaultCondition(t *testing.T) {
	s := &Scenario{}
	assert.Equal(t, mission.Survival, s.Condition(mission.Survival))
}

func TestLoadScenario_Errors(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)

	tests := map[string]string{
		"yaml":         "terrain: [",
		"terrain type": "terrain:\n  - name: Swamp\n    type: swamp\n",
		"connection":   "terrain:\n  - name: Ridge\n    type: ridge\n    connections: [nowhere]\n",
		"unit type":    "terrain:\n  - name: Ridge\n    type: ridge\nunits:\n  - {name: A, type: Cavalry, faction: friendly, zone: ridge}\n",
		"faction":      "terrain:\n  - name: Ridge\n    type: ridge\nunits:\n  - {name: A, type: Infantry, faction: pirates, zone: ridge}\n",
		"zone":         "terrain:\n  - name: Ridge\n    type: ridge\nunits:\n  - {name: A, type: Infantry, faction: friendly, zone: sea}\n",
		"condition":    "victory_condition: surrender\n",
		"start":        "mission_start: teatime\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, body))
			assert.Error(t, err)
		})
	}
}

func TestScenario_BuildDuplicateUnit(t *testing.T) {
	s := &Scenario{
		Terrain: []TerrainEntry{{Name: "Ridge", Type: "ridge"}},
		Units: []UnitEntry{
			{Name: "A", Type: "Infantry", Faction: "friendly", Zone: "ridge"},
			{Name: "A", Type: "Infantry", Faction: "friendly", Zone: "ridge"},
		},
	}
	_, err := s.NewWorld()
	assert.ErrorIs(t, err, world.ErrDuplicateUnit)
}

func TestShippedScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("..", "..", "data", "scenario.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Operation Nightfall", s.Name)

	w, err := s.NewWorld()
	require.NoError(t, err)
	assert.Equal(t, 6, w.CountUnits(world.Friendly))
	assert.Equal(t, 3, w.CountUnits(world.Hostile))
	require.Len(t, w.Objectives(), 1)
	assert.Equal(t, "hill-crest", w.Objectives()[0].ID)

	assert.Equal(t, logic.Unpredictable, s.Personalities()["Sapper"].Type)
	assert.Equal(t, 60, s.Supplies()["Bravo Squad"].Ammunition)
}
