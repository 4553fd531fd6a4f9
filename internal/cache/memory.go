package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value    []byte
	expireAt time.Time
	lastUsed time.Time
}

// MemoryStore is an in-process TTL cache with least-recently-used eviction.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string]*memoryItem
	maxSize int
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore holding at most maxSize keys.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &MemoryStore{
		data:    make(map[string]*memoryItem),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	now := m.now()
	if now.After(item.expireAt) {
		delete(m.data, key)
		return nil, ErrMiss
	}
	item.lastUsed = now
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[key]; !exists && len(m.data) >= m.maxSize {
		m.evictLRU()
	}
	now := m.now()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = &memoryItem{value: v, expireAt: now.Add(ttl), lastUsed: now}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for k, item := range m.data {
		if oldestKey == "" || item.lastUsed.Before(oldest) {
			oldestKey = k
			oldest = item.lastUsed
		}
	}
	if oldestKey != "" {
		delete(m.data, oldestKey)
	}
}
