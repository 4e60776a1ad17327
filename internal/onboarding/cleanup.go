package onboarding

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/common/metrics"
)

const (
	DefaultMaxSessionAge    = 7 * 24 * time.Hour
	DefaultCleanupInterval  = 30 * time.Minute
	DefaultAutoCleanupDelay = time.Second
)

// Cleanup outcome reasons.
const (
	ReasonRecentlyCleaned   = "Recently cleaned"
	ReasonNotExpired        = "Session not expired"
	ReasonSessionComplete   = "Session complete"
	ReasonIncompleteExpired = "Incomplete session expired"
	ReasonSessionExpired    = "Session expired"
)

// CleanupConfig tunes expiry. Zero values fall back to the defaults above; a nil
// Clock uses time.Now.
type CleanupConfig struct {
	MaxSessionAge    time.Duration
	CleanupInterval  time.Duration
	AutoCleanupDelay time.Duration
	Clock            func() time.Time
}

type CleanupOptions struct {
	OnlyIncomplete         bool `json:"onlyIncomplete"`
	PreserveCurrentSession bool `json:"preserveCurrentSession"`
}

type CleanupResult struct {
	Cleaned bool   `json:"cleaned"`
	Reason  string `json:"reason"`
}

// CleanupStatus is a read-only snapshot. Times are epoch milliseconds; LastCleanup is 0
// when no cleanup has run.
type CleanupStatus struct {
	SessionAge   int64 `json:"sessionAge"`
	LastCleanup  int64 `json:"lastCleanup"`
	IsExpired    bool  `json:"isExpired"`
	NeedsCleanup bool  `json:"needsCleanup"`
}

type IntegrityReport struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// CleanupManager expires abandoned onboarding sessions. It shares its Store with
// the SessionManager it is given.
type CleanupManager struct {
	store    Store
	sessions *SessionManager
	cfg      CleanupConfig
	now      func() time.Time
	logger   logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewCleanupManager(store Store, sessions *SessionManager, cfg CleanupConfig, log logger.Logger) *CleanupManager {
	if cfg.MaxSessionAge <= 0 {
		cfg.MaxSessionAge = DefaultMaxSessionAge
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}
	if cfg.AutoCleanupDelay <= 0 {
		cfg.AutoCleanupDelay = DefaultAutoCleanupDelay
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &CleanupManager{
		store:    store,
		sessions: sessions,
		cfg:      cfg,
		now:      now,
		logger:   log,
	}
}

// InitSession records the session start once; an existing start is never overwritten.
func (m *CleanupManager) InitSession(ctx context.Context) error {
	if _, ok := m.readTimestamp(ctx, sessionStartKey); ok {
		return nil
	}
	return m.writeTimestamp(ctx, sessionStartKey, m.now())
}

// SessionAge is zero when the start is missing, unparsable or in the future.
func (m *CleanupManager) SessionAge(ctx context.Context) time.Duration {
	start, ok := m.readTimestamp(ctx, sessionStartKey)
	if !ok {
		return 0
	}
	age := m.now().Sub(start)
	if age < 0 {
		return 0
	}
	return age
}

// IsSessionExpired is true iff the session is strictly older than maxAge.
func (m *CleanupManager) IsSessionExpired(ctx context.Context, maxAge time.Duration) bool {
	return m.SessionAge(ctx) > maxAge
}

// IsExpired applies the configured maximum age.
func (m *CleanupManager) IsExpired(ctx context.Context) bool {
	return m.IsSessionExpired(ctx, m.cfg.MaxSessionAge)
}

// Cleanup runs at most once per CleanupInterval. Any pass that is not rate limited
// records lastCleanup, whatever its outcome.
func (m *CleanupManager) Cleanup(ctx context.Context, opts CleanupOptions) (CleanupResult, error) {
	now := m.now()
	if m.recentlyCleaned(ctx, now) {
		metrics.OnboardingCleanups.WithLabelValues("rate_limited").Inc()
		return CleanupResult{Cleaned: false, Reason: ReasonRecentlyCleaned}, nil
	}

	result, err := m.evaluate(ctx, opts)
	if werr := m.writeTimestamp(ctx, lastCleanupKey, now); werr != nil && err == nil {
		err = werr
	}

	label := "kept"
	if result.Cleaned {
		label = "cleaned"
	}
	metrics.OnboardingCleanups.WithLabelValues(label).Inc()

	m.logger.Debug("onboarding cleanup pass", map[string]interface{}{
		"cleaned":        result.Cleaned,
		"reason":         result.Reason,
		"onlyIncomplete": opts.OnlyIncomplete,
		"preserve":       opts.PreserveCurrentSession,
	})
	return result, err
}

func (m *CleanupManager) evaluate(ctx context.Context, opts CleanupOptions) (CleanupResult, error) {
	if !m.IsExpired(ctx) {
		return CleanupResult{Cleaned: false, Reason: ReasonNotExpired}, nil
	}

	if opts.OnlyIncomplete {
		if m.sessions.IsComplete(ctx) {
			return CleanupResult{Cleaned: false, Reason: ReasonSessionComplete}, nil
		}
		if err := m.wipe(ctx, opts.PreserveCurrentSession); err != nil {
			return CleanupResult{Cleaned: false, Reason: ReasonIncompleteExpired}, err
		}
		return CleanupResult{Cleaned: true, Reason: ReasonIncompleteExpired}, nil
	}

	if err := m.wipe(ctx, opts.PreserveCurrentSession); err != nil {
		return CleanupResult{Cleaned: false, Reason: ReasonSessionExpired}, err
	}
	return CleanupResult{Cleaned: true, Reason: ReasonSessionExpired}, nil
}

// wipe removes step data; without preserve it also drops the session timestamps.
func (m *CleanupManager) wipe(ctx context.Context, preserve bool) error {
	if preserve {
		return m.sessions.ClearAll(ctx)
	}
	return m.removeAll(ctx)
}

// ForceCleanup removes every onboarding key, timestamps included, with no rate
// limit or expiry check.
func (m *CleanupManager) ForceCleanup(ctx context.Context) error {
	metrics.OnboardingCleanups.WithLabelValues("forced").Inc()
	return m.removeAll(ctx)
}

func (m *CleanupManager) removeAll(ctx context.Context) error {
	keys, err := m.store.Keys(ctx, KeyPrefix)
	if err != nil {
		m.logger.Warn("listing onboarding keys failed, removing known keys", map[string]interface{}{
			"error": err.Error(),
		})
		keys = knownKeys()
	}
	for _, key := range keys {
		if err := m.store.Remove(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// CleanupStatus never mutates the store.
func (m *CleanupManager) CleanupStatus(ctx context.Context) CleanupStatus {
	now := m.now()
	status := CleanupStatus{
		SessionAge: m.SessionAge(ctx).Milliseconds(),
		IsExpired:  m.IsExpired(ctx),
	}
	if last, ok := m.readTimestamp(ctx, lastCleanupKey); ok {
		status.LastCleanup = last.UnixMilli()
	}
	status.NeedsCleanup = status.IsExpired && !m.recentlyCleaned(ctx, now)
	return status
}

// ValidateSessionIntegrity checks every stored step against its schema. Corrupt
// steps are errors; an over-age session or an unknown step pointer are warnings.
// An empty object is a complete step and is not checked against the schema.
func (m *CleanupManager) ValidateSessionIntegrity(ctx context.Context) IntegrityReport {
	report := IntegrityReport{Errors: []string{}, Warnings: []string{}}

	for _, step := range Steps {
		raw, ok := m.store.Get(ctx, StepKey(step))
		if !ok || isNullJSON([]byte(raw)) || isEmptyObject([]byte(raw)) {
			continue
		}
		if problems := ValidateStep(step, []byte(raw)); len(problems) > 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("Corrupted data in step: %s", step))
			m.logger.Warn("onboarding step failed integrity check", map[string]interface{}{
				"step":     string(step),
				"problems": problems,
			})
		}
	}

	if m.IsExpired(ctx) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Session is older than the recommended maximum age of %s", m.cfg.MaxSessionAge))
	}
	if raw, ok := m.store.Get(ctx, currentStepKey); ok && !Step(raw).Valid() {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Unknown current step: %s", raw))
	}

	report.IsValid = len(report.Errors) == 0
	return report
}

// AutoInit starts the session and schedules one deferred cleanup of incomplete
// data. The scheduled pass stops when ctx is cancelled or Close is called. Only
// the first call schedules anything.
func (m *CleanupManager) AutoInit(ctx context.Context) error {
	if err := m.InitSession(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.deferredCleanup(runCtx, m.done)
	return nil
}

func (m *CleanupManager) deferredCleanup(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(m.cfg.AutoCleanupDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	result, err := m.Cleanup(ctx, CleanupOptions{OnlyIncomplete: true, PreserveCurrentSession: true})
	if err != nil {
		m.logger.Warn("deferred onboarding cleanup failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if result.Cleaned {
		m.logger.Info("deferred onboarding cleanup removed stale data", map[string]interface{}{
			"reason": result.Reason,
		})
	}
}

// Wait blocks until the scheduled cleanup has run or been cancelled.
func (m *CleanupManager) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Close cancels a pending deferred cleanup and waits for it to exit.
func (m *CleanupManager) Close() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *CleanupManager) recentlyCleaned(ctx context.Context, now time.Time) bool {
	last, ok := m.readTimestamp(ctx, lastCleanupKey)
	if !ok {
		return false
	}
	return now.Sub(last) < m.cfg.CleanupInterval
}

func (m *CleanupManager) readTimestamp(ctx context.Context, key string) (time.Time, bool) {
	raw, ok := m.store.Get(ctx, key)
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (m *CleanupManager) writeTimestamp(ctx context.Context, key string, t time.Time) error {
	return m.store.Set(ctx, key, strconv.FormatInt(t.UnixMilli(), 10))
}
