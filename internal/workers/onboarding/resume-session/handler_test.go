package resumesession

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cpn-workers/internal/common/errors"
	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/onboarding"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler *Handler
	store   *onboarding.MemoryStore
	session *onboarding.Session
	now     time.Time
}

func (e *testEnv) advance(d time.Duration) { e.now = e.now.Add(d) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store: onboarding.NewMemoryStore(),
		now:   time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	factory := onboarding.NewSessionFactory(func(string) onboarding.Store {
		return env.store
	}, onboarding.CleanupConfig{Clock: func() time.Time { return env.now }}, logger.NewTestLogger(t))

	env.handler = NewHandler(DefaultConfig(), factory, logger.NewTestLogger(t))
	env.session = factory.Open("s1")
	return env
}

func TestExecute_FreshSession(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.handler.Execute(context.Background(), &Input{SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, onboarding.CleanupResult{Cleaned: false, Reason: onboarding.ReasonNotExpired}, out.Cleanup)
	assert.Nil(t, out.Steps.Profile)
	assert.Equal(t, onboarding.StepProfile, out.Progress.CurrentStep)
	assert.Equal(t, 0, out.Progress.PercentComplete)
	assert.Equal(t, Navigation{NextStep: onboarding.StepDataEntry}, out.Navigation)
	assert.True(t, out.Integrity.IsValid)
}

func TestExecute_ResumesInProgressSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.session.Cleanup.InitSession(ctx))
	require.NoError(t, env.session.Steps.SaveStep(ctx, onboarding.StepProfile, onboarding.Profile{FirstName: "Alex", Age: 29, Rating: 7.5}))
	require.NoError(t, env.session.Steps.SetCurrentStep(ctx, onboarding.StepDataEntry))
	env.advance(time.Hour)

	out, err := env.handler.Execute(ctx, &Input{SessionID: "s1"})
	require.NoError(t, err)

	require.NotNil(t, out.Steps.Profile)
	assert.Equal(t, "Alex", out.Steps.Profile.FirstName)
	assert.Equal(t, Navigation{
		NextStep:     onboarding.StepResult,
		PreviousStep: onboarding.StepProfile,
		CanGoNext:    false,
		CanGoBack:    true,
	}, out.Navigation)
	assert.Equal(t, time.Hour.Milliseconds(), out.CleanupStatus.SessionAge)
	assert.Equal(t, env.now.UnixMilli(), out.CleanupStatus.LastCleanup)
}

func TestExecute_ExpiredIncompleteSessionIsCleared(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.session.Cleanup.InitSession(ctx))
	require.NoError(t, env.session.Steps.SaveStep(ctx, onboarding.StepProfile, onboarding.Profile{FirstName: "Alex", Age: 29, Rating: 7.5}))
	env.advance(8 * 24 * time.Hour)

	out, err := env.handler.Execute(ctx, &Input{SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, onboarding.CleanupResult{Cleaned: true, Reason: onboarding.ReasonIncompleteExpired}, out.Cleanup)
	assert.Nil(t, out.Steps.Profile)
	assert.Contains(t, out.Integrity.Warnings[0], "older than the recommended maximum age")
}

func TestExecute_ReportsCorruptStep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.store.Set(ctx, onboarding.StepKey(onboarding.StepDataEntry), `{"cost":"free"}`))

	out, err := env.handler.Execute(ctx, &Input{SessionID: "s1"})
	require.NoError(t, err)

	assert.False(t, out.Integrity.IsValid)
	assert.Equal(t, []string{"Corrupted data in step: dataEntry"}, out.Integrity.Errors)
}

func TestParseInput(t *testing.T) {
	vars, _ := json.Marshal(map[string]interface{}{"sessionId": "s1", "userId": "u1"})
	input, err := parseInput(entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Variables: string(vars)}})
	require.NoError(t, err)
	assert.Equal(t, "s1", input.SessionID)

	_, err = parseInput(entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Variables: `{"sessionId":""}`}})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInputValidationFailed, errors.Normalize(err).Code)
}
