package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/lox/powergrid/internal/board"
)

// LogKind separates player decisions from the events they cause.
type LogKind string

const (
	KindEvent LogKind = "event"
	KindMove  LogKind = "move"
)

// LogItem is one entry of the game log. Exactly one of Event or Move is set,
// according to Kind.
type LogItem struct {
	Kind   LogKind
	Event  Event
	Player PlayerColor
	Move   *Command
}

// EventItem wraps an event for the log.
func EventItem(ev Event) LogItem {
	return LogItem{Kind: KindEvent, Event: ev}
}

// MoveItem wraps a player's move for the log.
func MoveItem(player PlayerColor, cmd Command) LogItem {
	return LogItem{Kind: KindMove, Player: player, Move: &cmd}
}

func (li LogItem) String() string {
	if li.Kind == KindMove && li.Move != nil {
		return fmt.Sprintf("move %s by %s", li.Move.Name, li.Player)
	}
	if li.Event != nil {
		return fmt.Sprintf("event %s", li.Event.EventName())
	}
	return string(li.Kind)
}

func (li LogItem) MarshalJSON() ([]byte, error) {
	switch li.Kind {
	case KindEvent:
		if li.Event == nil {
			return nil, fmt.Errorf("log item: event is nil")
		}
		var payload any = li.Event
		if u, ok := li.Event.(UnknownEvent); ok {
			payload = u.Payload
		}
		ev, err := withName(string(li.Event.EventName()), payload)
		if err != nil {
			return nil, err
		}
		return json.Marshal(struct {
			Kind  LogKind         `json:"kind"`
			Event json.RawMessage `json:"event"`
		}{KindEvent, ev})
	case KindMove:
		if li.Move == nil {
			return nil, fmt.Errorf("log item: move is nil")
		}
		return json.Marshal(struct {
			Kind   LogKind     `json:"kind"`
			Player PlayerColor `json:"player"`
			Move   *Command    `json:"move"`
		}{KindMove, li.Player, li.Move})
	}
	return nil, fmt.Errorf("log item: unknown kind %q", li.Kind)
}

func (li *LogItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind   LogKind         `json:"kind"`
		Event  json.RawMessage `json:"event"`
		Player PlayerColor     `json:"player"`
		Move   json.RawMessage `json:"move"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Kind {
	case KindEvent:
		name, rest, err := splitName(raw.Event)
		if err != nil {
			return fmt.Errorf("log event: %w", err)
		}
		decode, ok := eventDecoders[EventName(name)]
		if !ok {
			*li = EventItem(UnknownEvent{Name: EventName(name), Payload: rest})
			return nil
		}
		ev, err := decode(rest)
		if err != nil {
			return fmt.Errorf("log event %s: %w", name, err)
		}
		*li = EventItem(ev)
	case KindMove:
		var cmd Command
		if err := json.Unmarshal(raw.Move, &cmd); err != nil {
			return fmt.Errorf("log move: %w", err)
		}
		*li = MoveItem(raw.Player, cmd)
	default:
		return fmt.Errorf("log item: unknown kind %q", raw.Kind)
	}
	return nil
}

// Move payloads.

type AuctionData struct {
	Plant int `json:"plant"`
}

type BidData struct {
	Bid int `json:"bid"`
}

type BuyResourceData struct {
	Resource board.Resource `json:"resource"`
	Price    int            `json:"price"`
}

// Advertised data for moves whose legal payloads form a set or range.

type AuctionOptions struct {
	Plants []int `json:"plants"`
}

type BidRange struct {
	Range [2]int `json:"range"`
}

// Command is a move submitted by a player. Data is nil for moves without a
// payload; otherwise it holds the move's data struct, by value or pointer.
type Command struct {
	Name MoveName
	Data any
}

func (c Command) MarshalJSON() ([]byte, error) {
	return withName(string(c.Name), c.Data)
}

func (c *Command) UnmarshalJSON(data []byte) error {
	name, rest, err := splitName(data)
	if err != nil {
		return fmt.Errorf("command: %w", err)
	}
	c.Name = MoveName(name)
	c.Data = nil

	newData := moveData(c.Name)
	if newData == nil {
		return nil
	}
	v := newData()
	if err := json.Unmarshal(rest, v); err != nil {
		return fmt.Errorf("command %s: %w", name, err)
	}
	c.Data = deref(v)
	return nil
}

// AvailableCommand is one entry of the legal move set. Data, when present,
// describes the payloads the move accepts.
type AvailableCommand struct {
	Move   MoveName    `json:"move"`
	Player PlayerColor `json:"player"`
	Data   any         `json:"data,omitempty"`
}

func (ac *AvailableCommand) UnmarshalJSON(data []byte) error {
	var raw struct {
		Move   MoveName        `json:"move"`
		Player PlayerColor     `json:"player"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ac.Move, ac.Player, ac.Data = raw.Move, raw.Player, nil
	if len(raw.Data) == 0 || bytes.Equal(raw.Data, []byte("null")) {
		return nil
	}

	var v any
	switch raw.Move {
	case MoveAuction:
		v = &AuctionOptions{}
	case MoveBid:
		v = &BidRange{}
	case MoveBuyResource:
		v = &BuyResourceData{}
	default:
		var generic any
		if err := json.Unmarshal(raw.Data, &generic); err != nil {
			return err
		}
		ac.Data = generic
		return nil
	}
	if err := json.Unmarshal(raw.Data, v); err != nil {
		return fmt.Errorf("available %s: %w", raw.Move, err)
	}
	ac.Data = deref(v)
	return nil
}

// Choices expands the entry into concrete commands. Auctions yield one
// command per plant; bids yield the bounds of the range.
func (ac AvailableCommand) Choices() []Command {
	switch d := ac.Data.(type) {
	case AuctionOptions:
		out := make([]Command, 0, len(d.Plants))
		for _, p := range d.Plants {
			out = append(out, Command{Name: ac.Move, Data: AuctionData{Plant: p}})
		}
		return out
	case BidRange:
		out := []Command{{Name: ac.Move, Data: BidData{Bid: d.Range[0]}}}
		if d.Range[1] != d.Range[0] {
			out = append(out, Command{Name: ac.Move, Data: BidData{Bid: d.Range[1]}})
		}
		return out
	case nil:
		return []Command{{Name: ac.Move}}
	}
	return []Command{{Name: ac.Move, Data: ac.Data}}
}

// Command returns the first of Choices.
func (ac AvailableCommand) Command() Command {
	return ac.Choices()[0]
}

// withName encodes data as a JSON object with an added "name" member.
func withName(name string, data any) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if data != nil {
		raw, ok := data.(json.RawMessage)
		if !ok {
			var err error
			if raw, err = json.Marshal(data); err != nil {
				return nil, err
			}
		}
		if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
			if err := json.Unmarshal(raw, &fields); err != nil {
				return nil, fmt.Errorf("%s: payload must be an object: %w", name, err)
			}
		}
	}
	n, err := json.Marshal(name)
	if err != nil {
		return nil, err
	}
	fields["name"] = n
	return json.Marshal(fields)
}

// splitName is the inverse of withName.
func splitName(data []byte) (string, json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return "", nil, err
	}
	var name string
	if err := json.Unmarshal(fields["name"], &name); err != nil || name == "" {
		return "", nil, fmt.Errorf("missing name")
	}
	delete(fields, "name")
	rest, err := json.Marshal(fields)
	if err != nil {
		return "", nil, err
	}
	return name, rest, nil
}

func deref(v any) any {
	switch d := v.(type) {
	case *AuctionData:
		if d != nil {
			return *d
		}
	case *BidData:
		if d != nil {
			return *d
		}
	case *BuyResourceData:
		if d != nil {
			return *d
		}
	case *AuctionOptions:
		if d != nil {
			return *d
		}
	case *BidRange:
		if d != nil {
			return *d
		}
	}
	return v
}

// dataAs reads a move payload given either as T or *T.
func dataAs[T any](data any) (T, bool) {
	if v, ok := data.(T); ok {
		return v, true
	}
	if p, ok := data.(*T); ok && p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

// moveData returns the payload constructor for a move, or nil for moves that
// carry none.
func moveData(name MoveName) func() any {
	for _, phase := range RoundPhases {
		if h, ok := registry[phase][name]; ok && h.NewData != nil {
			return h.NewData
		}
	}
	return nil
}

// cloneAvailable copies the legal move set so callers cannot alias engine
// state.
func cloneAvailable(in []AvailableCommand) []AvailableCommand {
	return slices.Clone(in)
}
