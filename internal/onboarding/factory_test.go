package onboarding

import (
	"context"
	"testing"
	"time"

	"cpn-workers/internal/common/config"
	"cpn-workers/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionFactory_IsolatesSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	factory := NewRedisSessionFactory(client, config.OnboardingConfig{
		KeyPrefix:  "cpn",
		SessionTTL: time.Hour,
	}, logger.NewTestLogger(t))
	ctx := context.Background()

	a := factory.Open("session-a")
	b := factory.Open("session-b")

	require.NoError(t, a.Steps.SaveStep(ctx, StepProfile, validProfile()))
	require.NoError(t, a.Cleanup.InitSession(ctx))

	assert.True(t, a.Steps.IsStepComplete(ctx, StepProfile))
	assert.False(t, b.Steps.IsStepComplete(ctx, StepProfile))
	assert.True(t, mr.Exists("cpn:session-a:"+StepKey(StepProfile)))

	require.NoError(t, a.Cleanup.ForceCleanup(ctx))
	assert.Empty(t, mr.Keys())
}

func TestRedisSessionFactory_DefaultNamespace(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	session := NewRedisSessionFactory(client, config.OnboardingConfig{}, logger.NewNoOpLogger()).Open("s1")
	require.NoError(t, session.Steps.SetCurrentStep(context.Background(), StepDataEntry))

	assert.True(t, mr.Exists("onboarding:s1:"+currentStepKey))
	assert.Equal(t, "s1", session.ID)
}

func TestSessionFactory_CustomStore(t *testing.T) {
	stores := map[string]*MemoryStore{}
	factory := NewSessionFactory(func(id string) Store {
		if _, ok := stores[id]; !ok {
			stores[id] = NewMemoryStore()
		}
		return stores[id]
	}, CleanupConfig{}, logger.NewNoOpLogger())

	ctx := context.Background()
	require.NoError(t, factory.Open("x").Steps.SaveStep(ctx, StepDataEntry, validDataEntry()))

	assert.True(t, factory.Open("x").Steps.IsStepComplete(ctx, StepDataEntry))
	assert.False(t, factory.Open("y").Steps.IsStepComplete(ctx, StepDataEntry))
}
