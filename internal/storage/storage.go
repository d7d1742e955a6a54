package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bilgisen/newshub/internal/models"
)

// ErrNotFound is returned when no snapshot has been archived yet.
var ErrNotFound = errors.New("snapshot not found")

// Archive persists completed cycle snapshots.
type Archive interface {
	Save(ctx context.Context, snap *models.Snapshot) error
	Latest(ctx context.Context) (*models.Snapshot, error)
}

// SnapshotKey is the dated relative path a snapshot is archived under.
func SnapshotKey(snap *models.Snapshot) string {
	ts := snap.CompletedAt.UTC()
	return fmt.Sprintf("snapshots/%s/%d_%s.json", ts.Format("2006/01/02"), ts.Unix(), snap.CycleID)
}

type Storage struct {
	basePath string
	mu       sync.RWMutex
}

func NewStorage(basePath string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Join(basePath, "snapshots"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Storage{
		basePath: basePath,
	}, nil
}

// Save writes a snapshot to a dated directory (YYYY/MM/DD)
func (s *Storage) Save(ctx context.Context, snap *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap == nil {
		return errors.New("nil snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := filepath.Join(s.basePath, filepath.FromSlash(SnapshotKey(snap)))
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create date directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	return nil
}

// Latest returns the most recently completed archived snapshot
func (s *Storage) Latest(ctx context.Context) (*models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	root := filepath.Join(s.basePath, "snapshots")
	var latest string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}
		// dated directories and unix-prefixed names sort chronologically
		if rel, _ := filepath.Rel(root, path); rel > latest {
			latest = rel
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking the path: %w", err)
	}
	if latest == "" {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(root, latest))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", latest, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
