package onboarding

import (
	"cpn-workers/internal/common/config"
	"cpn-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

const defaultNamespacePrefix = "onboarding"

// Session bundles the managers of one onboarding session over a shared Store.
type Session struct {
	ID      string
	Store   Store
	Steps   *SessionManager
	Cleanup *CleanupManager
}

// SessionFactory opens sessions by ID. Workers are stateless, so every job opens
// the session it names.
type SessionFactory struct {
	newStore func(sessionID string) Store
	cleanup  CleanupConfig
	logger   logger.Logger
}

func NewSessionFactory(newStore func(sessionID string) Store, cleanup CleanupConfig, log logger.Logger) *SessionFactory {
	return &SessionFactory{newStore: newStore, cleanup: cleanup, logger: log}
}

// NewRedisSessionFactory stores each session under its own Redis namespace.
func NewRedisSessionFactory(client redis.UniversalClient, cfg config.OnboardingConfig, log logger.Logger) *SessionFactory {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultNamespacePrefix
	}
	return NewSessionFactory(func(sessionID string) Store {
		return NewRedisStore(client, SessionNamespace(prefix, sessionID), cfg.SessionTTL, log)
	}, CleanupConfig{
		MaxSessionAge:    cfg.MaxSessionAge,
		CleanupInterval:  cfg.CleanupInterval,
		AutoCleanupDelay: cfg.AutoCleanupDelay,
	}, log)
}

func (f *SessionFactory) Open(sessionID string) *Session {
	log := f.logger.WithFields(map[string]interface{}{"sessionId": sessionID})
	store := f.newStore(sessionID)
	steps := NewSessionManager(store, log)
	return &Session{
		ID:      sessionID,
		Store:   store,
		Steps:   steps,
		Cleanup: NewCleanupManager(store, steps, f.cleanup, log),
	}
}
