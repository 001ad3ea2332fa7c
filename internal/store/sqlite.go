package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/powergrid/internal/game"
	"github.com/lox/powergrid/internal/store/migrations"
	_ "modernc.org/sqlite"
)

const sqliteFile = "powergrid.db"

// SQLiteStore keeps games in a SQLite database. The log is stored one row
// per item and only the new tail is written on each save.
type SQLiteStore struct {
	db    *sql.DB
	clock quartz.Clock
}

// OpenSQLite opens (or creates) the database in dir and applies the embedded
// migrations.
func OpenSQLite(dir string, clock quartz.Clock) (*SQLiteStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if clock == nil {
		clock = quartz.NewReal()
	}

	dsn := filepath.Join(filepath.Clean(dir), sqliteFile) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time keeps SQLite from reporting busy under load.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), db, migrations.FS, clock.Now().UTC()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{db: db, clock: clock}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (s *SQLiteStore) Save(ctx context.Context, id string, snap *game.Snapshot) error {
	if err := validateID(id); err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("snapshot is required")
	}

	// The log lives in its own table.
	state := *snap
	state.Log = nil
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", id, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stored, err := loadLog(ctx, tx, id)
	if err != nil {
		return err
	}
	ok, err := isPrefix(stored, snap.Log)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: game %s", ErrConflict, id)
	}

	now := toMillis(s.clock.Now())
	_, err = tx.ExecContext(ctx,
		`INSERT INTO games (id, seed, players, round, phase, ended, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   round = excluded.round,
		   phase = excluded.phase,
		   ended = excluded.ended,
		   state = excluded.state,
		   updated_at = excluded.updated_at`,
		id, snap.Seed, len(snap.Players), snap.Round, string(snap.Phase), snap.Ended,
		string(stateJSON), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert game %s: %w", id, err)
	}

	for seq := len(stored); seq < len(snap.Log); seq++ {
		item, err := json.Marshal(snap.Log[seq])
		if err != nil {
			return fmt.Errorf("encode log item %d: %w", seq, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO log_items (game_id, seq, item) VALUES (?, ?, ?)`,
			id, seq, string(item),
		); err != nil {
			return fmt.Errorf("insert log item %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	var (
		state            string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT state, created_at, updated_at FROM games WHERE id = ?`, id,
	).Scan(&state, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}

	var snap game.Snapshot
	if err := json.Unmarshal([]byte(state), &snap); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	if snap.Log, err = loadLog(ctx, s.db, id); err != nil {
		return nil, err
	}

	return &Record{
		ID:        id,
		Snapshot:  &snap,
		CreatedAt: fromMillis(created),
		UpdatedAt: fromMillis(updated),
	}, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seed, players, round, phase, ended, updated_at FROM games ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			phase   string
			updated int64
		)
		if err := rows.Scan(&sum.ID, &sum.Seed, &sum.Players, &sum.Round, &phase, &sum.Ended, &updated); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		sum.Phase = game.RoundPhase(phase)
		sum.UpdatedAt = fromMillis(updated)
		out = append(out, sum)
	}
	return out, rows.Err()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadLog(ctx context.Context, q queryer, id string) ([]game.LogItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT item FROM log_items WHERE game_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("load log %s: %w", id, err)
	}
	defer rows.Close()

	items := []game.LogItem{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan log item: %w", err)
		}
		var item game.LogItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("decode log item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
