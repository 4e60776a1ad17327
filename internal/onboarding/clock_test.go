package onboarding

import (
	"sync"
	"testing"
	"time"

	"cpn-workers/internal/common/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManagers(t *testing.T, cfg CleanupConfig) (*MemoryStore, *SessionManager, *CleanupManager, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	if cfg.Clock == nil {
		cfg.Clock = clock.Now
	}
	log := logger.NewTestLogger(t)
	store := NewMemoryStore()
	sessions := NewSessionManager(store, log)
	return store, sessions, NewCleanupManager(store, sessions, cfg, log), clock
}
