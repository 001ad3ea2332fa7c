package game

import (
	"encoding/json"

	"github.com/lox/powergrid/internal/board"
)

// EventName tags a game event in the log.
type EventName string

const (
	EventGameStart        EventName = "gamestart"
	EventRoundStart       EventName = "roundstart"
	EventTurnOrder        EventName = "turnorder"
	EventPhaseChange      EventName = "phasechange"
	EventMajorPhaseChange EventName = "majorphasechange"
	EventCurrentPlayer    EventName = "currentplayer"
	EventAcquirePlant     EventName = "acquireplant"
	EventDrawPlant        EventName = "drawplant"
	EventFillResources    EventName = "fillresources"
	EventGameEnd          EventName = "gameend"
)

// Event is a logged state change that is not a player decision.
type Event interface {
	EventName() EventName
}

type GameStartEvent struct{}

type RoundStartEvent struct {
	Round int `json:"round"`
}

type TurnOrderEvent struct {
	TurnOrder []PlayerColor `json:"turnorder"`
}

type PhaseChangeEvent struct {
	Phase RoundPhase `json:"phase"`
}

type MajorPhaseChangeEvent struct {
	Phase board.MajorPhase `json:"phase"`
}

type CurrentPlayerEvent struct {
	Player PlayerColor `json:"player"`
}

// AcquirePlantEvent closes an auction: the winner pays and takes the plant.
type AcquirePlantEvent struct {
	Player PlayerColor `json:"player"`
	Plant  board.Plant `json:"plant"`
	Cost   int         `json:"cost"`
}

// DrawPlantEvent moves the top of the draw pile into the market.
type DrawPlantEvent struct {
	Plant board.Plant `json:"plant"`
}

// FillResourcesEvent restocks the commodity tiers from the pool.
type FillResourcesEvent struct {
	Resources board.Refill `json:"resources"`
}

type GameEndEvent struct{}

// UnknownEvent keeps an event this version does not understand. Processing
// it is a no-op.
type UnknownEvent struct {
	Name    EventName
	Payload json.RawMessage
}

func (GameStartEvent) EventName() EventName        { return EventGameStart }
func (RoundStartEvent) EventName() EventName       { return EventRoundStart }
func (TurnOrderEvent) EventName() EventName        { return EventTurnOrder }
func (PhaseChangeEvent) EventName() EventName      { return EventPhaseChange }
func (MajorPhaseChangeEvent) EventName() EventName { return EventMajorPhaseChange }
func (CurrentPlayerEvent) EventName() EventName    { return EventCurrentPlayer }
func (AcquirePlantEvent) EventName() EventName     { return EventAcquirePlant }
func (DrawPlantEvent) EventName() EventName        { return EventDrawPlant }
func (FillResourcesEvent) EventName() EventName    { return EventFillResources }
func (GameEndEvent) EventName() EventName          { return EventGameEnd }
func (e UnknownEvent) EventName() EventName        { return e.Name }

var eventDecoders = map[EventName]func(json.RawMessage) (Event, error){
	EventGameStart:        decodeEvent[GameStartEvent],
	EventRoundStart:       decodeEvent[RoundStartEvent],
	EventTurnOrder:        decodeEvent[TurnOrderEvent],
	EventPhaseChange:      decodeEvent[PhaseChangeEvent],
	EventMajorPhaseChange: decodeEvent[MajorPhaseChangeEvent],
	EventCurrentPlayer:    decodeEvent[CurrentPlayerEvent],
	EventAcquirePlant:     decodeEvent[AcquirePlantEvent],
	EventDrawPlant:        decodeEvent[DrawPlantEvent],
	EventFillResources:    decodeEvent[FillResourcesEvent],
	EventGameEnd:          decodeEvent[GameEndEvent],
}

// EventNames lists every event name this version understands.
func EventNames() []EventName {
	return []EventName{
		EventGameStart, EventRoundStart, EventTurnOrder, EventPhaseChange,
		EventMajorPhaseChange, EventCurrentPlayer, EventAcquirePlant,
		EventDrawPlant, EventFillResources, EventGameEnd,
	}
}

func decodeEvent[T Event](raw json.RawMessage) (Event, error) {
	var ev T
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}
