package audit

import (
	"context"
	"sync"
)

// MemoryBackend 内存审计后端，达到容量后丢弃最旧的 10%
type MemoryBackend struct {
	entries []*Entry
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryBackend 创建内存后端
func NewMemoryBackend(maxSize int) *MemoryBackend {
	if maxSize <= 0 {
		maxSize = 100000
	}
	return &MemoryBackend{
		entries: make([]*Entry, 0),
		maxSize: maxSize,
	}
}

// Write implements Backend.
func (m *MemoryBackend) Write(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.maxSize {
		removeCount := max(m.maxSize/10, 1)
		m.entries = m.entries[removeCount:]
	}

	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

// Query implements Backend.
func (m *MemoryBackend) Query(_ context.Context, filter *Filter) ([]*Entry, error) {
	if filter == nil {
		filter = &Filter{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]*Entry, 0)
	for _, e := range m.entries {
		if filter.matches(e) {
			cp := *e
			results = append(results, &cp)
		}
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(results) {
			return []*Entry{}, nil
		}
		results = results[filter.Offset:]
	}
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	return nil
}

// Len 当前记录数
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
