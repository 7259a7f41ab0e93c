package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wartactics/server/internal/logic"
	"github.com/wartactics/server/internal/mission"
	"github.com/wartactics/server/internal/world"
)

// TerrainEntry is one zone of the scenario map. ID defaults to the
// normalized name; connections may be written as names or ids.
type TerrainEntry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Connections []string `yaml:"connections"`
}

// UnitEntry is one squad of the order of battle.
type UnitEntry struct {
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"`
	Faction     string             `yaml:"faction"`
	Zone        string             `yaml:"zone"`
	Personality *logic.Personality `yaml:"personality"`
	Supplies    *logic.SupplyState `yaml:"supplies"`
}

// Scenario is a mission definition loaded from YAML.
type Scenario struct {
	Name             string         `yaml:"name"`
	Briefing         string         `yaml:"briefing"`
	VictoryCondition string         `yaml:"victory_condition"`
	MissionTimeLimit int            `yaml:"mission_time_limit"`
	MissionStart     string         `yaml:"mission_start"`
	Terrain          []TerrainEntry `yaml:"terrain"`
	Units            []UnitEntry    `yaml:"units"`
}

// LoadScenario reads and checks a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.check(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

func (s *Scenario) check() error {
	if s.VictoryCondition != "" {
		if _, err := mission.ParseCondition(s.VictoryCondition); err != nil {
			return err
		}
	}
	if s.MissionStart != "" {
		if _, err := mission.ParseTime(s.MissionStart); err != nil {
			return fmt.Errorf("mission_start: %w", err)
		}
	}
	zones := make(map[string]bool, len(s.Terrain))
	for _, t := range s.Terrain {
		if !world.TerrainType(t.Type).Valid() {
			return fmt.Errorf("terrain %q: unknown type %q", t.Name, t.Type)
		}
		zones[t.zoneID()] = true
	}
	for _, t := range s.Terrain {
		for _, c := range t.Connections {
			if !zones[world.ZoneID(c)] {
				return fmt.Errorf("terrain %q: connection to unknown zone %q", t.Name, c)
			}
		}
	}
	for _, u := range s.Units {
		if !world.UnitType(u.Type).Valid() {
			return fmt.Errorf("unit %q: unknown type %q", u.Name, u.Type)
		}
		if !world.Faction(u.Faction).Valid() {
			return fmt.Errorf("unit %q: unknown faction %q", u.Name, u.Faction)
		}
		if !zones[world.ZoneID(u.Zone)] {
			return fmt.Errorf("unit %q: unknown zone %q", u.Name, u.Zone)
		}
	}
	return nil
}

func (t TerrainEntry) zoneID() string {
	if t.ID != "" {
		return t.ID
	}
	return world.ZoneID(t.Name)
}

// Build populates w with the scenario's terrain and units.
func (s *Scenario) Build(w *world.World) error {
	for _, t := range s.Terrain {
		conns := make([]string, len(t.Connections))
		for i, c := range t.Connections {
			conns[i] = world.ZoneID(c)
		}
		node := world.CreateTerrainWithID(t.zoneID(), t.Name, world.TerrainType(t.Type), conns...)
		if err := w.AddTerrain(node); err != nil {
			return fmt.Errorf("build terrain %q: %w", t.Name, err)
		}
	}
	for _, u := range s.Units {
		unit := world.CreateUnit(world.UnitType(u.Type), u.Name, world.ZoneID(u.Zone), world.Faction(u.Faction))
		if err := w.Spawn(unit); err != nil {
			return fmt.Errorf("build unit %q: %w", u.Name, err)
		}
	}
	return nil
}

// NewWorld builds a fresh world from the scenario.
func (s *Scenario) NewWorld() (*world.World, error) {
	w := world.New()
	if err := s.Build(w); err != nil {
		return nil, err
	}
	return w, nil
}

// Condition returns the scenario's victory condition, or fallback when unset.
func (s *Scenario) Condition(fallback mission.Condition) mission.Condition {
	if s.VictoryCondition == "" {
		return fallback
	}
	return mission.Condition(s.VictoryCondition)
}

// Personalities returns the per-unit personality overrides.
func (s *Scenario) Personalities() map[string]logic.Personality {
	out := make(map[string]logic.Personality)
	for _, u := range s.Units {
		if u.Personality != nil {
			out[u.Name] = *u.Personality
		}
	}
	return out
}

// Supplies returns the per-unit starting logistics overrides.
func (s *Scenario) Supplies() map[string]logic.SupplyState {
	out := make(map[string]logic.SupplyState)
	for _, u := range s.Units {
		if u.Supplies != nil {
			out[u.Name] = *u.Supplies
		}
	}
	return out
}
