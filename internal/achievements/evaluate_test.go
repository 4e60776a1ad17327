package achievements

import (
	"testing"

	"cpn-workers/internal/models"
	"cpn-workers/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceStats() Stats {
	result := scoring.Calculate([]models.Interaction{
		{Cost: 100, Nuts: 2, TimeMinutes: 60},
		{Cost: 50, Nuts: 1, TimeMinutes: 30},
	}, scoring.DefaultOptions())
	return StatsFrom(result, 80)
}

func TestTrigger_StringAndParseRoundTrip(t *testing.T) {
	for _, trigger := range Triggers {
		parsed, err := ParseTrigger(trigger.String())
		require.NoError(t, err)
		assert.Equal(t, trigger, parsed)
	}

	_, err := ParseTrigger("streak_days")
	assert.Error(t, err)
	assert.Equal(t, "Trigger(42)", Trigger(42).String())
}

func TestParseTrigger_IsCaseInsensitive(t *testing.T) {
	got, err := ParseTrigger("  Score_Threshold ")
	require.NoError(t, err)
	assert.Equal(t, ScoreThreshold, got)
}

func TestMet(t *testing.T) {
	stats := referenceStats()

	tests := []struct {
		name string
		def  models.Achievement
		want bool
	}{
		{"first interaction", models.Achievement{Trigger: "first_interaction"}, true},
		{"interaction count reached", models.Achievement{Trigger: "interaction_count", Threshold: 2}, true},
		{"interaction count not reached", models.Achievement{Trigger: "interaction_count", Threshold: 10}, false},
		{"total nuts", models.Achievement{Trigger: "total_nuts", Threshold: 3}, true},
		{"score threshold", models.Achievement{Trigger: "score_threshold", Threshold: 75}, true},
		{"score threshold missed", models.Achievement{Trigger: "score_threshold", Threshold: 90}, false},
		{"time category", models.Achievement{Trigger: "category_threshold", Category: "time_management", Threshold: 100}, true},
		{"cost category", models.Achievement{Trigger: "category_threshold", Category: "cost_efficiency", Threshold: 50}, false},
		{"percentile", models.Achievement{Trigger: "percentile_threshold", Threshold: 75}, true},
		{"perfect success", models.Achievement{Trigger: "perfect_success_rate"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Met(tt.def, stats)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMet_ZeroStateUnlocksNothing(t *testing.T) {
	stats := StatsFrom(scoring.Calculate(nil, scoring.DefaultOptions()), scoring.DefaultPeerPercentile)

	for _, trigger := range Triggers {
		def := models.Achievement{Trigger: trigger.String(), Threshold: 1, Category: CategorySuccessRate}
		got, err := Met(def, stats)
		require.NoError(t, err)
		assert.False(t, got, trigger.String())
	}
}

func TestMet_Errors(t *testing.T) {
	_, err := Met(models.Achievement{Trigger: "streak_days"}, Stats{})
	assert.Error(t, err)

	_, err = Met(models.Achievement{Trigger: "category_threshold", Category: "charm"}, Stats{})
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	catalog := []models.Achievement{
		{ID: "a1", Trigger: "first_interaction"},
		{ID: "a2", Trigger: "score_threshold", Threshold: 90},
		{ID: "a3", Trigger: "total_nuts", Threshold: 3},
		{ID: "a4", Trigger: "streak_days", Threshold: 7},
		{ID: "a5", Trigger: "perfect_success_rate"},
	}
	unlocked := map[string]bool{"a1": true}

	ev := Evaluate(catalog, unlocked, referenceStats())

	ids := make([]string, 0, len(ev.Unlocked))
	for _, a := range ev.Unlocked {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a3", "a5"}, ids)
	require.Len(t, ev.Invalid, 1)
	assert.Contains(t, ev.Invalid, "a4")
}
