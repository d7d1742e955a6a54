package board

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/bilgisen/newshub/internal/cache"
	"github.com/bilgisen/newshub/internal/logger"
	"github.com/bilgisen/newshub/internal/models"
	"github.com/bilgisen/newshub/internal/storage"
)

// Board holds the latest published snapshot and mirrors it to the cache and
// the optional archive.
type Board struct {
	mu      sync.RWMutex
	current *models.Snapshot
	cache   cache.Store
	archive storage.Archive
	ttl     time.Duration
}

// New creates a board. cache and archive may be nil.
func New(store cache.Store, archive storage.Archive, ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Board{cache: store, archive: archive, ttl: ttl}
}

// Snapshot returns the current snapshot, or nil before the first publish.
func (b *Board) Snapshot() *models.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Publish replaces the current snapshot. Cache and archive failures are
// logged and never block the in-memory update.
func (b *Board) Publish(ctx context.Context, snap *models.Snapshot) {
	if snap == nil {
		return
	}
	b.mu.Lock()
	b.current = snap
	b.mu.Unlock()

	log := logger.With("board").With().Str("cycle_id", snap.CycleID).Logger()

	if b.cache != nil {
		data, err := json.Marshal(snap)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal snapshot")
		} else if err := b.cache.SaveSnapshot(ctx, data, b.ttl); err != nil {
			log.Warn().Err(err).Msg("Failed to cache snapshot")
		}
	}

	if b.archive != nil {
		if err := b.archive.Save(ctx, snap); err != nil {
			log.Warn().Err(err).Msg("Failed to archive snapshot")
		}
	}
}

// Warm loads the last known snapshot from the cache, falling back to the
// archive. It reports whether a snapshot was loaded.
func (b *Board) Warm(ctx context.Context) bool {
	log := logger.With("board")

	if b.cache != nil {
		data, ok, err := b.cache.LoadSnapshot(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Failed to load cached snapshot")
		case ok:
			var snap models.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				log.Warn().Err(err).Msg("Discarding unreadable cached snapshot")
			} else {
				b.set(&snap)
				log.Info().Str("cycle_id", snap.CycleID).Msg("Board warmed from cache")
				return true
			}
		}
	}

	if b.archive != nil {
		snap, err := b.archive.Latest(ctx)
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			log.Warn().Err(err).Msg("Failed to load archived snapshot")
		default:
			b.set(snap)
			log.Info().Str("cycle_id", snap.CycleID).Msg("Board warmed from archive")
			return true
		}
	}
	return false
}

func (b *Board) set(snap *models.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	// a cycle may already have completed while warming
	if b.current == nil {
		b.current = snap
	}
}
