package game

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dchest/siphash"
	"github.com/lox/powergrid/internal/board"
)

const (
	fingerprintKey0 = 0x706f77657267726a
	fingerprintKey1 = 0x736e617073686f74
)

// SnapshotOptions records the rule options a game was played with, so a
// restored game keeps behaving the same way.
type SnapshotOptions struct {
	MaxRounds     int                  `json:"maxRounds,omitempty"`
	StarvedPolicy StarvedAuctionPolicy `json:"starvedPolicy,omitempty"`
	TurnOrder     TurnOrderRule        `json:"turnOrder,omitempty"`
}

// Snapshot is the persisted form of a game: the log that rebuilds it plus
// the derived state used to verify the rebuild.
type Snapshot struct {
	Log               []LogItem          `json:"log"`
	Round             int                `json:"round"`
	Seed              string             `json:"seed"`
	RNGState          []byte             `json:"rngState"`
	Players           []*Player          `json:"players"`
	Phase             RoundPhase         `json:"phase"`
	MajorPhase        board.MajorPhase   `json:"majorPhase"`
	TurnOrder         []PlayerColor      `json:"turnOrder"`
	CurrentPlayer     PlayerColor        `json:"currentPlayer"`
	AvailableCommands []AvailableCommand `json:"availableCommands"`
	Ended             bool               `json:"ended,omitempty"`
	// BoardDigest hashes the market, commodity tiers, pool and draw pile.
	BoardDigest       string             `json:"boardDigest"`
	Options           SnapshotOptions    `json:"options"`
}

// Snapshot captures the game for persistence.
func (e *Engine) Snapshot() (*Snapshot, error) {
	state, err := e.rng.State()
	if err != nil {
		return nil, fmt.Errorf("rng state: %w", err)
	}

	digest, err := boardDigest(e.Board)
	if err != nil {
		return nil, err
	}

	players := make([]*Player, len(e.Players))
	for i, p := range e.Players {
		players[i] = p.clone()
	}

	return &Snapshot{
		Log:               slices.Clone(e.Log),
		Round:             e.Round,
		Seed:              e.seed,
		RNGState:          state,
		Players:           players,
		Phase:             e.Phase,
		MajorPhase:        e.MajorPhase,
		TurnOrder:         slices.Clone(e.TurnOrder),
		CurrentPlayer:     e.CurrentPlayer(),
		AvailableCommands: cloneAvailable(e.AvailableCommands),
		Ended:             e.ended,
		BoardDigest:       digest,
		Options: SnapshotOptions{
			MaxRounds:     e.opts.maxRounds,
			StarvedPolicy: e.opts.starvedPolicy,
			TurnOrder:     e.opts.turnOrder,
		},
	}, nil
}

// MarshalJSON encodes the engine as its snapshot.
func (e *Engine) MarshalJSON() ([]byte, error) {
	s, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// Fingerprint hashes the derived state of the snapshot. Two snapshots of the
// same game at the same point share a fingerprint; the log is not included.
func (s *Snapshot) Fingerprint() (string, error) {
	data, err := json.Marshal(struct {
		Round             int                `json:"round"`
		RNGState          []byte             `json:"rngState"`
		Players           []*Player          `json:"players"`
		Phase             RoundPhase         `json:"phase"`
		MajorPhase        board.MajorPhase   `json:"majorPhase"`
		TurnOrder         []PlayerColor      `json:"turnOrder"`
		CurrentPlayer     PlayerColor        `json:"currentPlayer"`
		AvailableCommands []AvailableCommand `json:"availableCommands"`
		Ended             bool               `json:"ended"`
		BoardDigest       string             `json:"boardDigest"`
	}{
		s.Round, s.RNGState, s.Players, s.Phase, s.MajorPhase,
		s.TurnOrder, s.CurrentPlayer, s.normalizedCommands(), s.Ended, s.BoardDigest,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", siphash.Hash(fingerprintKey0, fingerprintKey1, data)), nil
}

// boardDigest hashes the mutable parts of the board. The map is static and
// left out.
func boardDigest(b *board.Board) (string, error) {
	data, err := json.Marshal(struct {
		Pool        board.Pool        `json:"pool"`
		Market      board.Market      `json:"market"`
		Commodities []board.Commodity `json:"commodities"`
		Draw        board.DrawPile    `json:"draw"`
	}{b.Pool, b.Market, b.Commodities, b.Draw})
	if err != nil {
		return "", fmt.Errorf("board digest: %w", err)
	}
	return fmt.Sprintf("%016x", siphash.Hash(fingerprintKey0, fingerprintKey1, data)), nil
}

// normalizedCommands treats a nil and an empty move set alike.
func (s *Snapshot) normalizedCommands() []AvailableCommand {
	if len(s.AvailableCommands) == 0 {
		return []AvailableCommand{}
	}
	return s.AvailableCommands
}

// Restore rebuilds a game from a snapshot and checks that the rebuild matches
// the recorded state. Extra options, such as a logger, apply on top of the
// recorded rule options.
func Restore(s *Snapshot, opts ...Option) (*Engine, error) {
	if s == nil {
		return nil, fmt.Errorf("restore: nil snapshot")
	}
	all := []Option{WithMaxRounds(s.Options.MaxRounds)}
	if s.Options.StarvedPolicy != "" {
		all = append(all, WithStarvedAuctionPolicy(s.Options.StarvedPolicy))
	}
	if s.Options.TurnOrder != "" {
		all = append(all, WithTurnOrderRule(s.Options.TurnOrder))
	}
	all = append(all, opts...)

	e, err := Replay(len(s.Players), s.Seed, s.Log, all...)
	if err != nil {
		return nil, err
	}

	got, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	if err := verify(s, got); err != nil {
		e.logger.Error("Snapshot does not match its log", "error", err)
		return nil, err
	}
	return e, nil
}

func verify(want, got *Snapshot) error {
	switch {
	case want.Round != got.Round:
		return divergedf("round %d, replay reached %d", want.Round, got.Round)
	case want.Phase != got.Phase:
		return divergedf("phase %s, replay reached %s", want.Phase, got.Phase)
	case want.CurrentPlayer != got.CurrentPlayer:
		return divergedf("current player %s, replay has %s", want.CurrentPlayer, got.CurrentPlayer)
	case !slices.Equal(want.RNGState, got.RNGState):
		return divergedf("rng state differs")
	case want.BoardDigest != got.BoardDigest:
		return divergedf("board digest %s, replay has %s", want.BoardDigest, got.BoardDigest)
	}

	wf, err := want.Fingerprint()
	if err != nil {
		return err
	}
	gf, err := got.Fingerprint()
	if err != nil {
		return err
	}
	if wf != gf {
		return divergedf("state fingerprint %s, replay has %s", wf, gf)
	}
	return nil
}
