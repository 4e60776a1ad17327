// Package scoring turns a user's interaction history into a CPN score. Everything
// here is pure: the same interactions always produce the same result.
package scoring

import (
	"math"

	"cpn-workers/internal/models"
)

// DefaultPeerPercentile is reported for a user with no peer population.
const DefaultPeerPercentile = 0

type Weights struct {
	CostEfficiency float64 `json:"cost_efficiency"`
	TimeManagement float64 `json:"time_management"`
	SuccessRate    float64 `json:"success_rate"`
}

func (w Weights) sum() float64 {
	return w.CostEfficiency + w.TimeManagement + w.SuccessRate
}

// Options controls normalisation. A ratio at or below its target scores 100.
type Options struct {
	Weights             Weights
	TargetCostPerNut    float64
	TargetMinutesPerNut float64
}

func DefaultOptions() Options {
	return Options{
		Weights: Weights{
			CostEfficiency: 0.4,
			TimeManagement: 0.3,
			SuccessRate:    0.3,
		},
		TargetCostPerNut:    20,
		TargetMinutesPerNut: 30,
	}
}

// withDefaults replaces unusable values so Calculate never divides by zero.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TargetCostPerNut <= 0 {
		o.TargetCostPerNut = d.TargetCostPerNut
	}
	if o.TargetMinutesPerNut <= 0 {
		o.TargetMinutesPerNut = d.TargetMinutesPerNut
	}
	if o.Weights.CostEfficiency < 0 || o.Weights.TimeManagement < 0 || o.Weights.SuccessRate < 0 || o.Weights.sum() <= 0 {
		o.Weights = d.Weights
	}
	return o
}

// Metrics are the raw aggregates of an interaction list.
type Metrics struct {
	TotalCost         float64 `json:"totalCost"`
	TotalNuts         int     `json:"totalNuts"`
	TotalTimeMinutes  int     `json:"totalTimeMinutes"`
	TotalSessions     int     `json:"totalSessions"`
	AverageCostPerNut float64 `json:"averageCostPerNut"`
	AverageTimePerNut float64 `json:"averageTimePerNut"`
	SuccessRate       float64 `json:"successRate"`
}

type Result struct {
	Metrics        Metrics               `json:"metrics"`
	CategoryScores models.CategoryScores `json:"categoryScores"`
	Score          float64               `json:"score"`
}

// Aggregate sums the interactions. Per-nut averages are 0 when no nuts were recorded.
func Aggregate(interactions []models.Interaction) Metrics {
	var m Metrics
	successful := 0
	for _, in := range interactions {
		m.TotalCost += in.Cost
		m.TotalNuts += in.Nuts
		m.TotalTimeMinutes += in.TimeMinutes
		if in.Successful() {
			successful++
		}
	}
	m.TotalSessions = len(interactions)

	if m.TotalNuts > 0 {
		m.AverageCostPerNut = m.TotalCost / float64(m.TotalNuts)
		m.AverageTimePerNut = float64(m.TotalTimeMinutes) / float64(m.TotalNuts)
	}
	if m.TotalSessions > 0 {
		m.SuccessRate = float64(successful) / float64(m.TotalSessions)
	}
	return m
}

// Calculate scores interactions. An empty list yields the all-zero result.
func Calculate(interactions []models.Interaction, opts Options) Result {
	opts = opts.withDefaults()
	m := Aggregate(interactions)
	if m.TotalSessions == 0 {
		return Result{Metrics: m}
	}

	var cats models.CategoryScores
	if m.TotalNuts > 0 {
		cats.CostEfficiency = ratioScore(m.AverageCostPerNut, opts.TargetCostPerNut)
		cats.TimeManagement = ratioScore(m.AverageTimePerNut, opts.TargetMinutesPerNut)
	}
	cats.SuccessRate = round2(clamp(m.SuccessRate * 100))

	w := opts.Weights
	overall := (cats.CostEfficiency*w.CostEfficiency +
		cats.TimeManagement*w.TimeManagement +
		cats.SuccessRate*w.SuccessRate) / w.sum()

	return Result{
		Metrics:        m,
		CategoryScores: cats,
		Score:          round2(clamp(overall)),
	}
}

// ratioScore is 100 up to target and falls off as target/ratio above it.
func ratioScore(ratio, target float64) float64 {
	if ratio <= target {
		return 100
	}
	return round2(clamp(100 * target / ratio))
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
