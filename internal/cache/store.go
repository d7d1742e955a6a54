package cache

import (
	"context"
	"time"
)

// Store is the shared cache behind link resolution and the board snapshot.
type Store interface {
	Close() error
	GetResolvedLink(ctx context.Context, hash string) (string, bool, error)
	SetResolvedLink(ctx context.Context, hash, target string, ttl time.Duration) error
	SaveSnapshot(ctx context.Context, data []byte, ttl time.Duration) error
	LoadSnapshot(ctx context.Context) ([]byte, bool, error)
}

const (
	linkKeyPrefix = "link:"
	snapshotKey   = "snapshot:latest"
)
