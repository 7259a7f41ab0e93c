package loop

import (
	"time"

	"github.com/wartactics/server/internal/orders"
)

type EventType string

const (
	EvStartGame       EventType = "START_GAME"
	EvSubmitOrder     EventType = "SUBMIT_ORDER"
	EvPauseGame       EventType = "PAUSE_GAME"
	EvResumeGame      EventType = "RESUME_GAME"
	EvEndTurn         EventType = "END_TURN"
	EvAdvanceTick     EventType = "ADVANCE_TICK"
	EvTick            EventType = "TICK"
	EvSetRealTime     EventType = "SET_REAL_TIME"
	EvChangeTickSpeed EventType = "CHANGE_TICK_SPEED"
	EvMissionComplete EventType = "MISSION_COMPLETE"
	EvMissionFailed   EventType = "MISSION_FAILED"
	EvError           EventType = "ERROR"
	EvResetGame       EventType = "RESET_GAME"

	evInitDone    EventType = "after.init"
	evTickSettled EventType = "after.settle"
)

// Event is any input accepted by Machine.Send.
type Event interface {
	Type() EventType
}

type StartGame struct{}
type SubmitOrder struct{ Order orders.Order }
type PauseGame struct{}
type ResumeGame struct{}
type EndTurn struct{}
type AdvanceTick struct{}

// Tick is produced by the real-time timer.
type Tick struct{ Timestamp time.Time }

type SetRealTime struct{ Enabled bool }
type ChangeTickSpeed struct{ Duration time.Duration }
type MissionComplete struct{}
type MissionFailed struct{}
type Error struct{ Err string }
type ResetGame struct{}

type initDone struct{}
type tickSettled struct{}

func (StartGame) Type() EventType       { return EvStartGame }
func (SubmitOrder) Type() EventType     { return EvSubmitOrder }
func (PauseGame) Type() EventType       { return EvPauseGame }
func (ResumeGame) Type() EventType      { return EvResumeGame }
func (EndTurn) Type() EventType         { return EvEndTurn }
func (AdvanceTick) Type() EventType     { return EvAdvanceTick }
func (Tick) Type() EventType            { return EvTick }
func (SetRealTime) Type() EventType     { return EvSetRealTime }
func (ChangeTickSpeed) Type() EventType { return EvChangeTickSpeed }
func (MissionComplete) Type() EventType { return EvMissionComplete }
func (MissionFailed) Type() EventType   { return EvMissionFailed }
func (Error) Type() EventType           { return EvError }
func (ResetGame) Type() EventType       { return EvResetGame }
func (initDone) Type() EventType        { return evInitDone }
func (tickSettled) Type() EventType     { return evTickSettled }
