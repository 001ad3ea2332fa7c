package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/coder/quartz"
	"github.com/lox/powergrid/internal/game"
)

// FileStore keeps each game as <id>.json in a directory.
type FileStore struct {
	dir   string
	clock quartz.Clock
}

type fileRecord struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Snapshot  *game.Snapshot `json:"snapshot"`
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string, clock quartz.Clock) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &FileStore{dir: dir, clock: clock}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Save(ctx context.Context, id string, snap *game.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("snapshot is required")
	}

	now := s.clock.Now().UTC()
	rec := fileRecord{ID: id, CreatedAt: now, UpdatedAt: now, Snapshot: snap}

	existing, err := s.read(id)
	switch {
	case err == nil:
		ok, err := isPrefix(existing.Snapshot.Log, snap.Log)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: game %s", ErrConflict, id)
		}
		rec.CreatedAt = existing.CreatedAt
	case !errors.Is(err, ErrNotFound):
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode game %s: %w", id, err)
	}
	return writeFileAtomic(s.path(id), data, 0o644)
}

func (s *FileStore) Load(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	rec, err := s.read(id)
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:        rec.ID,
		Snapshot:  rec.Snapshot,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read storage dir: %w", err)
	}

	var out []Summary
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, ok := strings.CutSuffix(entry.Name(), ".json")
		if entry.IsDir() || !ok || validateID(id) != nil {
			continue
		}
		rec, err := s.read(id)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(id, rec.Snapshot, rec.UpdatedAt))
	}
	slices.SortFunc(out, func(a, b Summary) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) read(id string) (*fileRecord, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read game %s: %w", id, err)
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	if rec.Snapshot == nil {
		return nil, fmt.Errorf("game %s has no snapshot", id)
	}
	return &rec, nil
}

// writeFileAtomic keeps the atomic-write contract for game files: data goes to a
// temporary file in the same directory, is synced, then renamed over
// filename. A concurrent Load observes either the previous snapshot or the
// complete new one, never a partial write.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	// Same directory, so the rename never crosses filesystems.
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp.*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tmp = nil

	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
