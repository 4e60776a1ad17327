package scoring

import (
	"math"
	"testing"

	"cpn-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interaction(cost float64, nuts, minutes int) models.Interaction {
	return models.Interaction{Cost: cost, Nuts: nuts, TimeMinutes: minutes}
}

func TestCalculate_ReferenceScenario(t *testing.T) {
	in := []models.Interaction{
		interaction(100, 2, 60),
		interaction(50, 1, 30),
	}

	got := Calculate(in, DefaultOptions())

	assert.Equal(t, Metrics{
		TotalCost:         150,
		TotalNuts:         3,
		TotalTimeMinutes:  90,
		TotalSessions:     2,
		AverageCostPerNut: 50,
		AverageTimePerNut: 30,
		SuccessRate:       1,
	}, got.Metrics)
	assert.Equal(t, models.CategoryScores{
		CostEfficiency: 40,
		TimeManagement: 100,
		SuccessRate:    100,
	}, got.CategoryScores)
	assert.Equal(t, 76.0, got.Score)

	assert.Equal(t, got, Calculate(in, DefaultOptions()), "recalculation is deterministic")
}

func TestCalculate_OrderDoesNotMatter(t *testing.T) {
	a := []models.Interaction{interaction(30, 1, 20), interaction(90, 0, 45), interaction(10, 3, 60)}
	b := []models.Interaction{a[2], a[0], a[1]}

	assert.Equal(t, Calculate(a, DefaultOptions()), Calculate(b, DefaultOptions()))
}

func TestCalculate_ZeroState(t *testing.T) {
	for name, in := range map[string][]models.Interaction{
		"nil":   nil,
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			got := Calculate(in, DefaultOptions())
			assert.Equal(t, Result{}, got)
		})
	}
}

func TestCalculate_NoNuts(t *testing.T) {
	got := Calculate([]models.Interaction{interaction(80, 0, 120), interaction(40, 0, 60)}, DefaultOptions())

	assert.Zero(t, got.Metrics.AverageCostPerNut)
	assert.Zero(t, got.Metrics.AverageTimePerNut)
	assert.Equal(t, models.CategoryScores{}, got.CategoryScores)
	assert.Zero(t, got.Score)
	assert.False(t, math.IsNaN(got.Score))
}

func TestCalculate_FreeAndInstantEncountersSaturate(t *testing.T) {
	got := Calculate([]models.Interaction{interaction(0, 4, 0)}, DefaultOptions())

	assert.Equal(t, 100.0, got.CategoryScores.CostEfficiency)
	assert.Equal(t, 100.0, got.CategoryScores.TimeManagement)
	assert.Equal(t, 100.0, got.Score)
}

func TestCalculate_CategoryScoresDecreaseWithCost(t *testing.T) {
	prev := 101.0
	for _, cost := range []float64{10, 20, 40, 200, 2000, 2e6} {
		got := Calculate([]models.Interaction{interaction(cost, 1, 30)}, DefaultOptions())
		cs := got.CategoryScores.CostEfficiency
		assert.LessOrEqual(t, cs, prev, "cost %v", cost)
		assert.GreaterOrEqual(t, cs, 0.0)
		prev = cs
	}
	assert.Less(t, prev, 0.01)
}

func TestCalculate_PartialSuccess(t *testing.T) {
	got := Calculate([]models.Interaction{
		interaction(20, 1, 30),
		interaction(20, 0, 30),
		interaction(20, 0, 30),
	}, DefaultOptions())

	// 60 spent and 90 minutes over one nut
	assert.Equal(t, 33.33, got.CategoryScores.CostEfficiency)
	assert.Equal(t, 33.33, got.CategoryScores.TimeManagement)
	assert.Equal(t, 33.33, got.CategoryScores.SuccessRate)
	assert.Equal(t, 33.33, got.Score)
}

func TestCalculate_CustomWeightsAreNormalised(t *testing.T) {
	opts := DefaultOptions()
	opts.Weights = Weights{CostEfficiency: 2, TimeManagement: 1, SuccessRate: 1}

	got := Calculate([]models.Interaction{interaction(100, 2, 60), interaction(50, 1, 30)}, opts)

	// (40*2 + 100 + 100) / 4
	assert.Equal(t, 70.0, got.Score)
}

func TestOptions_WithDefaults(t *testing.T) {
	got := Options{Weights: Weights{CostEfficiency: -1, SuccessRate: 2}}.withDefaults()

	require.Equal(t, DefaultOptions(), got)
}
