// Package store persists game snapshots.
//
// Two backends are provided: FileStore keeps one JSON document per game in a
// directory, SQLiteStore keeps the log row by row in a SQLite database. Both
// stamp records with an injected clock.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/lox/powergrid/internal/game"
)

var (
	ErrNotFound = errors.New("game not found")
	// ErrConflict means a save would rewrite history: the stored log is not
	// a prefix of the new one.
	ErrConflict = errors.New("stored log is not a prefix of the new log")
)

// Record is a stored game.
type Record struct {
	ID        string
	Snapshot  *game.Snapshot
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary describes a stored game without its log.
type Summary struct {
	ID        string
	Seed      string
	Players   int
	Round     int
	Phase     game.RoundPhase
	Ended     bool
	UpdatedAt time.Time
}

// Store saves and loads games.
type Store interface {
	// Save writes the snapshot under id, creating the game if needed.
	Save(ctx context.Context, id string, snap *game.Snapshot) error
	Load(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context) ([]Summary, error)
	Close() error
}

// NewGameID returns a time-ordered game identifier.
func NewGameID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate game id: %w", err)
	}
	return id.String(), nil
}

// Open returns the store for driver, rooted at dir.
func Open(driver, dir string, clock quartz.Clock) (Store, error) {
	switch driver {
	case "file":
		return NewFileStore(dir, clock)
	case "sqlite":
		return OpenSQLite(dir, clock)
	}
	return nil, fmt.Errorf("unknown storage driver %q", driver)
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid game id %q: %w", id, err)
	}
	return nil
}

func summarize(id string, snap *game.Snapshot, updated time.Time) Summary {
	return Summary{
		ID:        id,
		Seed:      snap.Seed,
		Players:   len(snap.Players),
		Round:     snap.Round,
		Phase:     snap.Phase,
		Ended:     snap.Ended,
		UpdatedAt: updated,
	}
}

// isPrefix reports whether old is a prefix of log.
func isPrefix(old, log []game.LogItem) (bool, error) {
	if len(old) > len(log) {
		return false, nil
	}
	for i := range old {
		a, err := json.Marshal(old[i])
		if err != nil {
			return false, err
		}
		b, err := json.Marshal(log[i])
		if err != nil {
			return false, err
		}
		if !bytes.Equal(a, b) {
			return false, nil
		}
	}
	return true, nil
}
