package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryClient is the in-process Store used when no Redis URL is configured.
type MemoryClient struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

func (m *MemoryClient) Close() error {
	return nil
}

func (m *MemoryClient) GetResolvedLink(ctx context.Context, hash string) (string, bool, error) {
	v, ok := m.get(linkKeyPrefix + hash)
	return string(v), ok, nil
}

func (m *MemoryClient) SetResolvedLink(ctx context.Context, hash, target string, ttl time.Duration) error {
	m.set(linkKeyPrefix+hash, []byte(target), ttl)
	return nil
}

func (m *MemoryClient) SaveSnapshot(ctx context.Context, data []byte, ttl time.Duration) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.set(snapshotKey, cp, ttl)
	return nil
}

func (m *MemoryClient) LoadSnapshot(ctx context.Context) ([]byte, bool, error) {
	v, ok := m.get(snapshotKey)
	return v, ok, nil
}

func (m *MemoryClient) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.data, key)
		return nil, false
	}
	return e.value, true
}

// set stores value; a non-positive ttl means no expiry, as with Redis.
func (m *MemoryClient) set(key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = e
}
