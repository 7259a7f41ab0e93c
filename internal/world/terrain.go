package world

import (
	"strings"

	"github.com/wartactics/server/internal/core/ecs"
)

type TerrainType string

const (
	Ridge     TerrainType = "ridge"
	Valley    TerrainType = "valley"
	Urban     TerrainType = "urban"
	Forest    TerrainType = "forest"
	Plains    TerrainType = "plains"
	Objective TerrainType = "objective"
)

var coverByType = map[TerrainType]float64{
	Ridge:     80,
	Valley:    60,
	Urban:     90,
	Forest:    70,
	Plains:    20,
	Objective: 100,
}

func (t TerrainType) Valid() bool {
	_, ok := coverByType[t]
	return ok
}

// Cover returns the damage reduction percentage for the terrain type.
func (t TerrainType) Cover() float64 { return coverByType[t] }

type TerrainProperties struct {
	IsObjective  bool
	MovementCost float64
}

// TerrainNode is a zone in the movement graph.
type TerrainNode struct {
	Entity      ecs.EntityID
	ID          string
	Type        TerrainType
	Name        string
	Connections []string // adjacent zone ids
	Cover       float64  // 0-100
	Properties  TerrainProperties
}

// Connects reports whether a unit in this zone may hop to id.
func (t *TerrainNode) Connects(id string) bool {
	for _, c := range t.Connections {
		if c == id {
			return true
		}
	}
	return false
}

// ZoneID normalizes a human zone name to its id form:
// lowercase, whitespace runs collapsed to a single hyphen.
// "Valley Beta" becomes "valley-beta".
func ZoneID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
