package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/powergrid/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSnapshot(t *testing.T, moves int) (*game.Engine, *game.Snapshot) {
	t.Helper()
	e, err := game.New(3, "store-seed", game.WithMaxRounds(5))
	require.NoError(t, err)
	for i := 0; i < moves && !e.Ended(); i++ {
		require.NoError(t, e.Move(e.CurrentPlayer(), e.AvailableCommands[0].Command()))
	}
	snap, err := e.Snapshot()
	require.NoError(t, err)
	return e, snap
}

func newID(t *testing.T) string {
	t.Helper()
	id, err := NewGameID()
	require.NoError(t, err)
	return id
}

// forEachStore runs fn against every backend.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store, clock *quartz.Mock)) {
	for _, driver := range []string{"file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			t.Parallel()
			clock := quartz.NewMock(t)
			clock.Set(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
			s, err := Open(driver, t.TempDir(), clock)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s, clock)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	forEachStore(t, func(t *testing.T, s Store, clock *quartz.Mock) {
		ctx := context.Background()
		e, snap := newSnapshot(t, 12)
		id := newID(t)

		created := clock.Now().UTC()
		require.NoError(t, s.Save(ctx, id, snap))

		rec, err := s.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, rec.ID)
		assert.True(t, created.Equal(rec.CreatedAt), "created %v, want %v", rec.CreatedAt, created)
		assert.Len(t, rec.Snapshot.Log, len(snap.Log))

		restored, err := game.Restore(rec.Snapshot)
		require.NoError(t, err)
		assert.Equal(t, e.CurrentPlayer(), restored.CurrentPlayer())
		assert.Equal(t, e.AvailableCommands, restored.AvailableCommands)
	})
}

func TestSaveAppendsAndKeepsCreatedAt(t *testing.T) {
	t.Parallel()

	forEachStore(t, func(t *testing.T, s Store, clock *quartz.Mock) {
		ctx := context.Background()
		e, snap := newSnapshot(t, 4)
		id := newID(t)
		created := clock.Now().UTC()
		require.NoError(t, s.Save(ctx, id, snap))

		clock.Advance(time.Minute)
		for i := 0; i < 6; i++ {
			require.NoError(t, e.Move(e.CurrentPlayer(), e.AvailableCommands[0].Command()))
		}
		later, err := e.Snapshot()
		require.NoError(t, err)
		require.NoError(t, s.Save(ctx, id, later))

		rec, err := s.Load(ctx, id)
		require.NoError(t, err)
		assert.True(t, created.Equal(rec.CreatedAt))
		assert.True(t, created.Add(time.Minute).Equal(rec.UpdatedAt))
		assert.Len(t, rec.Snapshot.Log, len(later.Log))
		assert.Equal(t, later.Round, rec.Snapshot.Round)

		_, err = game.Restore(rec.Snapshot)
		require.NoError(t, err)
	})
}

func TestSaveRejectsRewrittenHistory(t *testing.T) {
	t.Parallel()

	forEachStore(t, func(t *testing.T, s Store, _ *quartz.Mock) {
		ctx := context.Background()
		_, long := newSnapshot(t, 10)
		id := newID(t)
		require.NoError(t, s.Save(ctx, id, long))

		_, short := newSnapshot(t, 2)
		assert.ErrorIs(t, s.Save(ctx, id, short), ErrConflict)
	})
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	forEachStore(t, func(t *testing.T, s Store, _ *quartz.Mock) {
		_, err := s.Load(context.Background(), newID(t))
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.Load(context.Background(), "../etc/passwd")
		assert.Error(t, err)
	})
}

func TestList(t *testing.T) {
	t.Parallel()

	forEachStore(t, func(t *testing.T, s Store, _ *quartz.Mock) {
		ctx := context.Background()
		empty, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		_, first := newSnapshot(t, 0)
		_, second := newSnapshot(t, 8)
		a, b := newID(t), newID(t)
		require.NoError(t, s.Save(ctx, a, first))
		require.NoError(t, s.Save(ctx, b, second))

		got, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, a, got[0].ID)
		assert.Equal(t, b, got[1].ID)
		assert.Equal(t, "store-seed", got[0].Seed)
		assert.Equal(t, 3, got[1].Players)
		assert.Equal(t, second.Phase, got[1].Phase)
	})
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open("postgres", t.TempDir(), quartz.NewMock(t))
	assert.Error(t, err)

	_, err = NewFileStore("", nil)
	assert.Error(t, err)
}

func TestGameIDsAreOrdered(t *testing.T) {
	t.Parallel()

	a, b := newID(t), newID(t)
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.NoError(t, validateID(a))
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "game.json")

	require.NoError(t, writeFileAtomic(path, []byte("first"), 0o644))
	require.NoError(t, writeFileAtomic(path, []byte("second"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "absent", "game.json")
	err := writeFileAtomic(path, []byte("data"), 0o644)
	assert.ErrorContains(t, err, "failed to create temp file")

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUpMigration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "\nCREATE TABLE a (x INT);\n",
		upMigration("-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;\n"))
	assert.Equal(t, "SELECT 1;", upMigration("SELECT 1;"))
}
