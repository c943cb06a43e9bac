package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pribylovaa/go-travel-planner/internal/token"
)

type memoryEntry struct {
	tok     token.Token
	expires time.Time
}

// MemoryRenewals — in-memory реализация Renewals для одного процесса
// (локальный запуск или отсутствие Redis).
type MemoryRenewals struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryRenewals создаёт пустой in-memory кэш.
func NewMemoryRenewals() *MemoryRenewals {
	return &MemoryRenewals{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryRenewals) Remember(_ context.Context, key string, tok token.Token, ttl time.Duration) (token.Token, error) {
	if ttl <= 0 || key == "" {
		return tok, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.purge(now)

	if e, ok := m.entries[key]; ok {
		return e.tok, nil
	}

	m.entries[key] = memoryEntry{tok: tok, expires: now.Add(ttl)}
	return tok, nil
}

func (m *MemoryRenewals) Forget(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	return nil
}

func (m *MemoryRenewals) Close() error { return nil }

// Len возвращает число живых записей.
func (m *MemoryRenewals) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purge(m.now())
	return len(m.entries)
}

// purge удаляет истёкшие записи; вызывается под мьютексом.
func (m *MemoryRenewals) purge(now time.Time) {
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
}

var _ Renewals = (*MemoryRenewals)(nil)
