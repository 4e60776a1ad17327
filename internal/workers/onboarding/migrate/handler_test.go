package migrate

import (
	"context"
	"testing"
	"time"

	"cpn-workers/internal/common/errors"
	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/onboarding"
	"cpn-workers/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	handler *Handler
	mock    sqlmock.Sqlmock
	store   *onboarding.MemoryStore
	session *onboarding.Session
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := onboarding.NewMemoryStore()
	factory := onboarding.NewSessionFactory(func(string) onboarding.Store { return store },
		onboarding.CleanupConfig{}, logger.NewTestLogger(t))

	h := NewHandler(DefaultConfig(), factory,
		repository.NewProfileRepository(db), repository.NewInteractionRepository(db), logger.NewTestLogger(t))
	return &testEnv{handler: h, mock: mock, store: store, session: factory.Open("s1")}
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.session.Cleanup.InitSession(ctx))
	require.NoError(t, e.session.Steps.SaveStep(ctx, onboarding.StepProfile,
		onboarding.Profile{FirstName: "Alex", Age: 29, Ethnicity: "mixed", Rating: 7.5}))
	require.NoError(t, e.session.Steps.SaveStep(ctx, onboarding.StepDataEntry,
		onboarding.DataEntry{Date: "2024-02-28", Cost: 40, Time: 30, Nuts: 1, Notes: "first night"}))
}

func TestExecute_MigratesAndClearsSession(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	env.mock.ExpectExec("INSERT INTO user_profiles").
		WithArgs("user-1", "Alex", 29, "mixed", 7.5, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec("INSERT INTO user_interactions").
		WithArgs(interactionID("s1"), "user-1", time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
			40.0, 30, 1, "first night", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	out, err := env.handler.Execute(context.Background(), &Input{SessionID: "s1", UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, &Output{UserID: "user-1", InteractionID: interactionID("s1"), SessionCleared: true}, out)
	keys, err := env.store.Keys(context.Background(), onboarding.KeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestExecute_RetryAfterInsertIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	env.mock.ExpectExec("INSERT INTO user_profiles").WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec("INSERT INTO user_interactions").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "user_interactions_pkey"})

	out, err := env.handler.Execute(context.Background(), &Input{SessionID: "s1", UserID: "user-1"})
	require.NoError(t, err)
	assert.True(t, out.AlreadyMigrated)
	assert.True(t, out.SessionCleared)
}

func TestExecute_RedeliveryAfterCleanup(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	input := &Input{SessionID: "s1", UserID: "user-1"}

	env.mock.ExpectExec("INSERT INTO user_profiles").WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectExec("INSERT INTO user_interactions").WillReturnResult(sqlmock.NewResult(0, 1))
	first, err := env.handler.Execute(context.Background(), input)
	require.NoError(t, err)
	require.True(t, first.SessionCleared)

	env.mock.ExpectQuery("SELECT EXISTS").
		WithArgs(interactionID("s1"), "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	second, err := env.handler.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, &Output{
		UserID:          "user-1",
		InteractionID:   interactionID("s1"),
		AlreadyMigrated: true,
		SessionCleared:  true,
	}, second)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestExecute_EmptySessionNeverMigrated(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT EXISTS").
		WithArgs(interactionID("s1"), "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	_, err := env.handler.Execute(context.Background(), &Input{SessionID: "s1", UserID: "user-1"})
	require.Error(t, err)

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeOnboardingIncomplete, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "profile")
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestExecute_MigrationLookupFails(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery("SELECT EXISTS").WillReturnError(assert.AnError)

	_, err := env.handler.Execute(context.Background(), &Input{SessionID: "s1", UserID: "user-1"})
	require.Error(t, err)

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecute_IncompleteSession(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.session.Steps.SaveStep(context.Background(), onboarding.StepProfile,
		onboarding.Profile{FirstName: "Alex", Age: 29, Rating: 7.5}))

	_, err := env.handler.Execute(context.Background(), &Input{SessionID: "s1", UserID: "user-1"})
	require.Error(t, err)

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeOnboardingIncomplete, stdErr.Code)
	assert.Contains(t, stdErr.Details, "dataEntry")
	assert.NotContains(t, stdErr.Details, "profile")
	assert.True(t, env.session.Steps.IsStepComplete(context.Background(), onboarding.StepProfile), "nothing is removed")
}

func TestExecute_ProfileWriteFails(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)
	env.mock.ExpectExec("INSERT INTO user_profiles").WillReturnError(assert.AnError)

	_, err := env.handler.Execute(context.Background(), &Input{SessionID: "s1", UserID: "user-1"})
	require.Error(t, err)

	stdErr := errors.Normalize(err)
	assert.Equal(t, errors.ErrCodeDatabaseInsertFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.True(t, env.session.Steps.IsStepComplete(context.Background(), onboarding.StepDataEntry))
}

func TestInteractionID_StablePerSession(t *testing.T) {
	assert.Equal(t, interactionID("s1"), interactionID("s1"))
	assert.NotEqual(t, interactionID("s1"), interactionID("s2"))
}

func TestParseInput(t *testing.T) {
	input, err := parseInput(entities.Job{ActivatedJob: &pb.ActivatedJob{Variables: `{"sessionId":"s1","userId":"u1"}`}})
	require.NoError(t, err)
	assert.Equal(t, &Input{SessionID: "s1", UserID: "u1"}, input)

	_, err = parseInput(entities.Job{ActivatedJob: &pb.ActivatedJob{Variables: `{"sessionId":"s1"}`}})
	require.Error(t, err)
}
