package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/seo-lead-finder/internal/model"
)

type memoryEntry struct {
	report  model.QualityReport
	expires time.Time
}

// Memory is an in-process cache. Expired entries are dropped on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, url string) (*model.QualityReport, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Key(url)
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	r := e.report
	return &r, true, nil
}

func (m *Memory) Set(_ context.Context, url string, report *model.QualityReport, ttl time.Duration) error {
	if report == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[Key(url)] = memoryEntry{report: *report, expires: m.now().Add(ttl)}
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// read.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Close() error { return nil }
