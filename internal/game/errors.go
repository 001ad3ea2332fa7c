package game

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalMove is returned when a move is not available to the player
	// or its data does not match what was advertised.
	ErrIllegalMove = errors.New("illegal move")
	// ErrUnknownPlayer means a player reference matched nobody. Seen from a
	// log it indicates corruption.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrReplayDiverged means replaying a log did not reproduce the
	// recorded state.
	ErrReplayDiverged = errors.New("replay diverged")
	ErrGameEnded      = errors.New("game has ended")
	ErrPlayerCount    = errors.New("player count must be between 2 and 6")
)

// IllegalMoveError describes a rejected move.
type IllegalMoveError struct {
	Player PlayerColor
	Move   MoveName
	Reason string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %q by %s: %s", e.Move, e.Player, e.Reason)
}

func (e *IllegalMoveError) Unwrap() error {
	return ErrIllegalMove
}

func divergedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrReplayDiverged, fmt.Sprintf(format, args...))
}
