package challenge

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/bankvault/internal/pkg/clock"
)

type entry struct {
	code      string
	expiresAt time.Time
}

// Memory is a Store backed by a mutex-guarded map.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	clock   clock.Clocker
	opts    options
}

// NewMemory creates an in-process store.
func NewMemory(clk clock.Clocker, opts ...Option) *Memory {
	return &Memory{
		entries: make(map[string]entry),
		clock:   clk,
		opts:    newOptions(opts...),
	}
}

// Issue implements Store.
func (m *Memory) Issue(_ context.Context, key string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, ErrEmptyKey
	}

	code, err := generateCode(m.opts.entropy)
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := m.clock.Now().Add(m.opts.ttl)

	m.mu.Lock()
	m.entries[key] = entry{code: code, expiresAt: expiresAt}
	m.mu.Unlock()

	return code, expiresAt, nil
}

// Verify implements Store.
func (m *Memory) Verify(_ context.Context, key, candidate string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return false, nil
	}

	if m.clock.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return false, nil
	}

	if subtle.ConstantTimeCompare([]byte(e.code), []byte(candidate)) != 1 {
		return false, nil
	}

	delete(m.entries, key)
	return true, nil
}

// Sweep drops every expired challenge and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Memory) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = m.opts.ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.DebugContext(ctx, "expired challenges swept", "count", n)
			}
		}
	}
}

// Len returns the number of stored challenges, expired or not.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
