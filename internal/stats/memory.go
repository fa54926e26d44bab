package stats

import (
	"context"
	"sync"
)

// Memory keeps counters in process.
type Memory struct {
	mu     sync.RWMutex
	values map[string]int64
}

// NewMemory returns an empty in-process counter set.
func NewMemory() *Memory {
	return &Memory{values: map[string]int64{}}
}

func (m *Memory) Increment(_ context.Context, name string) error {
	if !ValidName(name) {
		return ErrBadName
	}
	m.mu.Lock()
	m.values[name]++
	m.mu.Unlock()
	return nil
}

func (m *Memory) Decrement(_ context.Context, name string) error {
	if !ValidName(name) {
		return ErrBadName
	}
	m.mu.Lock()
	if m.values[name] > 0 {
		m.values[name]--
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Read(context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]int64, len(m.values))
	for k, v := range m.values {
		cp[k] = v
	}
	return snapshot(cp), nil
}

func (m *Memory) Close() error { return nil }
