// Package achievements decides which catalog achievements a user has earned.
package achievements

import (
	"fmt"
	"strings"
)

// Trigger is the closed set of conditions an achievement can be tied to.
type Trigger int

const (
	FirstInteraction Trigger = iota + 1
	InteractionCount
	TotalNuts
	ScoreThreshold
	CategoryThreshold
	PercentileThreshold
	PerfectSuccessRate
)

var triggerNames = map[Trigger]string{
	FirstInteraction:    "first_interaction",
	InteractionCount:    "interaction_count",
	TotalNuts:           "total_nuts",
	ScoreThreshold:      "score_threshold",
	CategoryThreshold:   "category_threshold",
	PercentileThreshold: "percentile_threshold",
	PerfectSuccessRate:  "perfect_success_rate",
}

// Triggers lists every trigger in declaration order.
var Triggers = []Trigger{
	FirstInteraction,
	InteractionCount,
	TotalNuts,
	ScoreThreshold,
	CategoryThreshold,
	PercentileThreshold,
	PerfectSuccessRate,
}

func (t Trigger) String() string {
	if name, ok := triggerNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Trigger(%d)", int(t))
}

// ParseTrigger maps a stored trigger name to its Trigger. Unknown names are an error.
func ParseTrigger(name string) (Trigger, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range triggerNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown achievement trigger %q", name)
}

// Category names accepted by CategoryThreshold achievements.
const (
	CategoryCostEfficiency = "cost_efficiency"
	CategoryTimeManagement = "time_management"
	CategorySuccessRate    = "success_rate"
)
