package achievements

import (
	"fmt"

	"cpn-workers/internal/models"
	"cpn-workers/internal/scoring"
)

// Stats is everything a trigger can look at.
type Stats struct {
	Metrics        scoring.Metrics
	Score          float64
	CategoryScores models.CategoryScores
	PeerPercentile int
}

// StatsFrom builds Stats from a calculated score and the stored percentile.
func StatsFrom(result scoring.Result, percentile int) Stats {
	return Stats{
		Metrics:        result.Metrics,
		Score:          result.Score,
		CategoryScores: result.CategoryScores,
		PeerPercentile: percentile,
	}
}

// Met reports whether stats satisfy the achievement. It fails for a trigger name
// it does not know or a category threshold with an unknown category.
func Met(def models.Achievement, stats Stats) (bool, error) {
	trigger, err := ParseTrigger(def.Trigger)
	if err != nil {
		return false, err
	}

	switch trigger {
	case FirstInteraction:
		return stats.Metrics.TotalSessions >= 1, nil
	case InteractionCount:
		return float64(stats.Metrics.TotalSessions) >= def.Threshold, nil
	case TotalNuts:
		return float64(stats.Metrics.TotalNuts) >= def.Threshold, nil
	case ScoreThreshold:
		return stats.Score >= def.Threshold, nil
	case CategoryThreshold:
		v, err := categoryValue(stats.CategoryScores, def.Category)
		if err != nil {
			return false, err
		}
		return v >= def.Threshold, nil
	case PercentileThreshold:
		return float64(stats.PeerPercentile) >= def.Threshold, nil
	case PerfectSuccessRate:
		return stats.Metrics.TotalSessions > 0 && stats.Metrics.SuccessRate >= 1, nil
	default:
		return false, fmt.Errorf("unhandled trigger %s", trigger)
	}
}

func categoryValue(c models.CategoryScores, category string) (float64, error) {
	switch category {
	case CategoryCostEfficiency:
		return c.CostEfficiency, nil
	case CategoryTimeManagement:
		return c.TimeManagement, nil
	case CategorySuccessRate:
		return c.SuccessRate, nil
	default:
		return 0, fmt.Errorf("unknown score category %q", category)
	}
}

// Evaluation is the outcome of checking a catalog.
type Evaluation struct {
	Unlocked []models.Achievement
	// Invalid holds catalog entries that could not be evaluated, keyed by achievement ID.
	Invalid map[string]error
}

// Evaluate returns catalog entries that stats now satisfy and that are not already
// unlocked. Catalog order is preserved. A broken catalog entry is skipped, not fatal.
func Evaluate(catalog []models.Achievement, unlocked map[string]bool, stats Stats) Evaluation {
	ev := Evaluation{Unlocked: []models.Achievement{}, Invalid: map[string]error{}}
	for _, def := range catalog {
		if unlocked[def.ID] {
			continue
		}
		ok, err := Met(def, stats)
		if err != nil {
			ev.Invalid[def.ID] = err
			continue
		}
		if ok {
			ev.Unlocked = append(ev.Unlocked, def)
		}
	}
	return ev
}
