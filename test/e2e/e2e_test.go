// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cpn-workers/internal/common/config"
	"cpn-workers/internal/common/database"
	"cpn-workers/internal/common/logger"
	"cpn-workers/internal/onboarding"
	"cpn-workers/internal/repository"

	calculatecpnscore "cpn-workers/internal/workers/cpn/calculate-cpn-score"
	evaluateachievements "cpn-workers/internal/workers/cpn/evaluate-achievements"
	loginteraction "cpn-workers/internal/workers/cpn/log-interaction"
	onboardingcleanup "cpn-workers/internal/workers/onboarding/cleanup"
	migrate "cpn-workers/internal/workers/onboarding/migrate"
	resumesession "cpn-workers/internal/workers/onboarding/resume-session"
	savestep "cpn-workers/internal/workers/onboarding/save-step"
)

var (
	cfg    *config.Config
	pg     *database.PostgresClient
	rdb    *database.RedisClient
	zapLog *zap.Logger
)

// TestMain needs the docker-compose stack. Set CPN_E2E=1 to run.
func TestMain(m *testing.M) {
	if os.Getenv("CPN_E2E") != "1" {
		fmt.Println("CPN_E2E not set, skipping end-to-end tests")
		os.Exit(0)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		panic(fmt.Sprintf("config load failed: %v", err))
	}
	zapLog, _ = zap.NewDevelopment()

	pg, err = database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		panic(fmt.Sprintf("postgres: %v", err))
	}
	rdb = database.NewRedis(cfg.Database.Redis)

	code := m.Run()

	rdb.Close()
	pg.Close()
	os.Exit(code)
}

func applySchema(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, pg.Ping(ctx), "postgres ping failed")
	require.NoError(t, rdb.Ping(ctx), "redis ping failed")

	for _, path := range []string{"migrations", "../migrations", "../../migrations"} {
		sqlBytes, err := os.ReadFile(filepath.Join(path, "001_cpn_schema.sql"))
		if err != nil {
			continue
		}
		_, err = pg.DB.ExecContext(ctx, string(sqlBytes))
		require.NoError(t, err, "apply schema")
		return
	}
	t.Fatal("migrations directory not found")
}

func TestOnboardingToScoreFlow(t *testing.T) {
	applySchema(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log := logger.NewZapAdapter(zapLog)
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	sessionID := "e2e-session-" + suffix
	userID := "e2e-user-" + suffix

	sessions := onboarding.NewRedisSessionFactory(rdb.Client, cfg.Onboarding, log)
	interactions := repository.NewInteractionRepository(pg.DB)
	scores := repository.NewScoreRepository(pg.DB)

	save := savestep.NewHandler(savestep.DefaultConfig(), sessions, log)
	defer save.Close()
	saveStep := func(step string, data interface{}) *savestep.Output {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		out, err := save.Execute(ctx, &savestep.Input{SessionID: sessionID, Step: step, Data: raw})
		require.NoError(t, err, step)
		return out
	}

	out := saveStep("profile", onboarding.Profile{FirstName: "Robin", Age: 31, Rating: 8})
	assert.Equal(t, onboarding.StepDataEntry, out.CurrentStep)
	out = saveStep("dataEntry", onboarding.DataEntry{Date: "2024-03-01", Cost: 80, Time: 60, Nuts: 2})
	assert.Equal(t, 67, out.Progress.PercentComplete)

	resumed, err := resumesession.NewHandler(resumesession.DefaultConfig(), sessions, log).
		Execute(ctx, &resumesession.Input{SessionID: sessionID})
	require.NoError(t, err)
	require.NotNil(t, resumed.Steps.Profile)
	assert.Equal(t, "Robin", resumed.Steps.Profile.FirstName)
	assert.False(t, resumed.Cleanup.Cleaned)

	migrated, err := migrate.NewHandler(migrate.DefaultConfig(), sessions,
		repository.NewProfileRepository(pg.DB), interactions, log).
		Execute(ctx, &migrate.Input{SessionID: sessionID, UserID: userID})
	require.NoError(t, err)
	assert.False(t, migrated.AlreadyMigrated)
	assert.True(t, migrated.SessionCleared)

	_, err = loginteraction.NewHandler(loginteraction.DefaultConfig(), interactions, log).
		Execute(ctx, &loginteraction.Input{UserID: userID, Date: "2024-03-05", Cost: 40, TimeMinutes: 30, Nuts: 1})
	require.NoError(t, err)

	score, err := calculatecpnscore.NewHandler(calculatecpnscore.DefaultConfig(), calculatecpnscore.Dependencies{
		Interactions: interactions,
		Scores:       scores,
		Peers:        scores,
	}, log).Execute(ctx, &calculatecpnscore.Input{UserID: userID})
	require.NoError(t, err)
	assert.Equal(t, 2, score.Metrics.TotalSessions)
	assert.Equal(t, 3, score.Metrics.TotalNuts)

	unlocked, err := evaluateachievements.NewHandler(evaluateachievements.DefaultConfig(), evaluateachievements.Dependencies{
		Interactions: interactions,
		Scores:       scores,
		Achievements: repository.NewAchievementRepository(pg.DB),
	}, log).Execute(ctx, &evaluateachievements.Input{UserID: userID})
	require.NoError(t, err)

	ids := []string{}
	for _, a := range unlocked.NewlyUnlocked {
		ids = append(ids, a.ID)
	}
	assert.Contains(t, ids, "first-interaction")
	assert.Contains(t, ids, "perfect-record")

	cleaned, err := onboardingcleanup.NewHandler(onboardingcleanup.DefaultConfig(), sessions, log).
		Execute(ctx, &onboardingcleanup.Input{SessionID: sessionID, Force: true})
	require.NoError(t, err)
	assert.True(t, cleaned.Result.Cleaned)
}
