package logic

import "github.com/wartactics/server/internal/world"

// Temperament drives how a unit reacts to orders.
type Temperament string

const (
	Aggressive    Temperament = "aggressive"
	Cautious      Temperament = "cautious"
	Reliable      Temperament = "reliable"
	Unpredictable Temperament = "unpredictable"
)

// Personality is a unit's behavior profile.
type Personality struct {
	Type              Temperament `yaml:"type"`
	WillRefuseOrders  bool        `yaml:"will_refuse_orders"`
	AdaptiveThreshold int         `yaml:"adaptive_threshold"` // 0-100
	MoraleThreshold   int         `yaml:"morale_threshold"`   // minimum supply morale for attack orders
}

var personalities = map[world.UnitType]Personality{
	world.Infantry:  {Type: Reliable, AdaptiveThreshold: 60, MoraleThreshold: 40},
	world.Recon:     {Type: Cautious, AdaptiveThreshold: 80, MoraleThreshold: 30},
	world.Armor:     {Type: Aggressive, AdaptiveThreshold: 40, MoraleThreshold: 50},
	world.Artillery: {Type: Reliable, AdaptiveThreshold: 70, MoraleThreshold: 35},
	world.Engineers: {Type: Cautious, AdaptiveThreshold: 75, MoraleThreshold: 25},
	world.UAV:       {Type: Reliable, AdaptiveThreshold: 90, MoraleThreshold: 0},
}

// PersonalityFor returns the default profile of a unit type. Unknown types
// behave like infantry.
func PersonalityFor(t world.UnitType) Personality {
	if p, ok := personalities[t]; ok {
		return p
	}
	return personalities[world.Infantry]
}

// SupplyState is a unit's logistics, separate from its combat gauges.
type SupplyState struct {
	Ammunition     int    `yaml:"ammunition"` // 0-100
	Fuel           int    `yaml:"fuel"`       // 0-100
	Communications bool   `yaml:"communications"`
	Morale         int    `yaml:"morale"`  // 0-100
	Fatigue        int    `yaml:"fatigue"` // 0-100
	LastResupply   string `yaml:"-"`       // HHMMZ
}

// InitialSupplies is what every unit starts a mission with.
func InitialSupplies(stamp string) SupplyState {
	return SupplyState{
		Ammunition:     100,
		Fuel:           100,
		Communications: true,
		Morale:         85,
		Fatigue:        10,
		LastResupply:   stamp,
	}
}

const (
	supplyFloor    = 20 // below this, attacks are refused and morale drains
	supplyCritical = 10
)

// Short reports whether the unit is low on ammunition or fuel.
func (s SupplyState) Short() bool {
	return s.Ammunition <= supplyFloor || s.Fuel <= supplyFloor
}

type CommStatus string

const (
	CommClear    CommStatus = "clear"
	CommJammed   CommStatus = "jammed"
	CommDegraded CommStatus = "degraded" // blackout timed out without an explicit restore
)

type IntelSource string

const (
	SourceVisual IntelSource = "visual"
	SourceSigint IntelSource = "sigint"
	SourceHumint IntelSource = "humint"
	SourceUAV    IntelSource = "uav"
	SourceRecon  IntelSource = "recon"
)

func (s IntelSource) Valid() bool {
	switch s {
	case SourceVisual, SourceSigint, SourceHumint, SourceUAV, SourceRecon:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// PriorityFor tiers a confidence score.
func PriorityFor(confidence int) Priority {
	switch {
	case confidence > 80:
		return PriorityHigh
	case confidence > 50:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ConfidenceTag labels a report by confidence.
func ConfidenceTag(confidence int) string {
	switch {
	case confidence > 80:
		return "CONFIRMED"
	case confidence > 50:
		return "PROBABLE"
	default:
		return "UNCONFIRMED"
	}
}

type IntelReport struct {
	ID         string
	Source     IntelSource
	Confidence int
	Timestamp  string
	Content    string
	Location   string
	Priority   Priority
}

type SitRepKind string

const (
	KindCombat   SitRepKind = "combat"
	KindMovement SitRepKind = "movement"
	KindIntel    SitRepKind = "intel"
	KindSupply   SitRepKind = "supply"
	KindStatus   SitRepKind = "status"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SitRep is a situation report filed by the logic machine.
type SitRep struct {
	ID        string
	Timestamp string
	Kind      SitRepKind
	Unit      string
	Location  string
	Content   string
	Severity  Severity
}

func (s SitRep) String() string {
	return "[" + s.Timestamp + "] " + s.Content
}

// Sighting is the last known position of hostile activity in a zone.
type Sighting struct {
	Confidence int
	LastSeen   string
}

type ReconType string

const (
	ReconUAV   ReconType = "uav"
	ReconScout ReconType = "scout"
)

// ReconAsset is a friendly unit able to file recon reports.
type ReconAsset struct {
	ID       string
	Type     ReconType
	Location string
	Status   string
}

type CombatOutcome string

const (
	Hit    CombatOutcome = "hit"
	Miss   CombatOutcome = "miss"
	Killed CombatOutcome = "killed"
)

// CombatResult is a reported exchange of fire. Confidence reflects fog of war.
type CombatResult struct {
	Tick       int
	Attacker   string
	Target     string
	Result     CombatOutcome
	Confidence int
}
