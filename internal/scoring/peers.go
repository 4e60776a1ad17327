package scoring

import "math"

// PeerComparison places a score within a population of other users' scores.
type PeerComparison struct {
	AverageScore float64 `json:"averageScore"`
	TotalUsers   int     `json:"totalUsers"`
	Percentile   int     `json:"percentile"`
}

// ComparePeers reports the share of the population scoring strictly below score,
// as a rounded 0-100 value. An empty population compares as all zeros.
func ComparePeers(score float64, population []float64) PeerComparison {
	if len(population) == 0 {
		return PeerComparison{Percentile: DefaultPeerPercentile}
	}

	var sum float64
	below := 0
	for _, s := range population {
		sum += s
		if s < score {
			below++
		}
	}
	n := len(population)
	return PeerComparison{
		AverageScore: round2(sum / float64(n)),
		TotalUsers:   n,
		Percentile:   int(math.Round(100 * float64(below) / float64(n))),
	}
}
