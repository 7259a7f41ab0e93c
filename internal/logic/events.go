package logic

import (
	"time"

	"github.com/wartactics/server/internal/mission"
	"github.com/wartactics/server/internal/orders"
	"github.com/wartactics/server/internal/world"
)

type EventType string

const (
	EvValidateOrder         EventType = "VALIDATE_ORDER"
	EvGameLoopTick          EventType = "GAME_LOOP_TICK"
	EvWorldReady            EventType = "WORLD_READY"
	EvProcessCombat         EventType = "PROCESS_COMBAT"
	EvUpdateMorale          EventType = "UPDATE_MORALE"
	EvUpdateIntel           EventType = "UPDATE_INTEL"
	EvReconReport           EventType = "RECON_REPORT"
	EvAnalyzeIntel          EventType = "ANALYZE_INTEL"
	EvGenerateSitRep        EventType = "GENERATE_SITREP"
	EvProcessSupplies       EventType = "PROCESS_SUPPLIES"
	EvResupply              EventType = "RESUPPLY"
	EvCheckTimeConstraints  EventType = "CHECK_TIME_CONSTRAINTS"
	EvCommunicationJammed   EventType = "COMMUNICATION_JAMMED"
	EvCommunicationRestored EventType = "COMMUNICATION_RESTORED"

	evAdaptDone       EventType = "after.adapt"
	evRefuseDone      EventType = "after.refuse"
	evExecuteDone     EventType = "after.execute"
	evAnalysisDone    EventType = "after.analysis"
	evShortageTimeout EventType = "after.shortage"
	evBlackoutExpired EventType = "after.blackout"
)

// Event is any input accepted by Machine.Send.
type Event interface {
	Type() EventType
}

type ValidateOrder struct{ Order orders.Order }

// GameLoopTick mirrors a processed loop tick.
type GameLoopTick struct {
	World        *world.World
	Tick         int
	Turn         int
	MissionTimer int
	TickDuration time.Duration
	MissionTime  mission.Clock
}

// WorldReady attaches a freshly built world, or detaches it when World is nil.
type WorldReady struct{ World *world.World }

type ProcessCombat struct{ Delta float64 }
type UpdateMorale struct{ Delta float64 }

type UpdateIntel struct {
	Source     IntelSource
	Confidence int
	Content    string
	Location   string
}

type ReconReport struct {
	Source   ReconType
	Location string
	Findings string
}

type AnalyzeIntel struct{}

// GenerateSitRep asks for a unit report, or a general one when Unit is empty.
type GenerateSitRep struct{ Unit string }

type ProcessSupplies struct{}

// Resupply restores one unit's logistics, or every unit's when Unit is empty.
type Resupply struct{ Unit string }

type CheckTimeConstraints struct{}
type CommunicationJammed struct{}
type CommunicationRestored struct{}

type adaptDone struct{}
type refuseDone struct{}
type executeDone struct{}
type analysisDone struct{}
type shortageTimeout struct{}
type blackoutExpired struct{}

func (ValidateOrder) Type() EventType         { return EvValidateOrder }
func (GameLoopTick) Type() EventType          { return EvGameLoopTick }
func (WorldReady) Type() EventType            { return EvWorldReady }
func (ProcessCombat) Type() EventType         { return EvProcessCombat }
func (UpdateMorale) Type() EventType          { return EvUpdateMorale }
func (UpdateIntel) Type() EventType           { return EvUpdateIntel }
func (ReconReport) Type() EventType           { return EvReconReport }
func (AnalyzeIntel) Type() EventType          { return EvAnalyzeIntel }
func (GenerateSitRep) Type() EventType        { return EvGenerateSitRep }
func (ProcessSupplies) Type() EventType       { return EvProcessSupplies }
func (Resupply) Type() EventType              { return EvResupply }
func (CheckTimeConstraints) Type() EventType  { return EvCheckTimeConstraints }
func (CommunicationJammed) Type() EventType   { return EvCommunicationJammed }
func (CommunicationRestored) Type() EventType { return EvCommunicationRestored }

func (adaptDone) Type() EventType       { return evAdaptDone }
func (refuseDone) Type() EventType      { return evRefuseDone }
func (executeDone) Type() EventType     { return evExecuteDone }
func (analysisDone) Type() EventType    { return evAnalysisDone }
func (shortageTimeout) Type() EventType { return evShortageTimeout }
func (blackoutExpired) Type() EventType { return evBlackoutExpired }

// State is the logic machine's top-level state.
type State int

const (
	Idle State = iota
	Active
	ValidatingOrder
	CheckingWillingness
	AdaptingOrder
	RefusingOrder
	ExecutingOrder
	ProcessingIntel
	SupplyShortage
	CommunicationBlackout
)

var stateNames = [...]string{
	Idle:                  "idle",
	Active:                "active",
	ValidatingOrder:       "validatingOrder",
	CheckingWillingness:   "checkingUnitWillingness",
	AdaptingOrder:         "adaptingOrder",
	RefusingOrder:         "refusingOrder",
	ExecutingOrder:        "executingOrder",
	ProcessingIntel:       "processingIntel",
	SupplyShortage:        "supplyShortage",
	CommunicationBlackout: "communicationBlackout",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Busy reports whether an order is in flight.
func (s State) Busy() bool {
	switch s {
	case ValidatingOrder, CheckingWillingness, AdaptingOrder, RefusingOrder, ExecutingOrder:
		return true
	}
	return false
}
