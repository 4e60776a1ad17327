package models

import "time"

// CategoryScores are the three 0-100 sub-scores of a CPN score.
type CategoryScores struct {
	CostEfficiency float64 `json:"cost_efficiency"`
	TimeManagement float64 `json:"time_management"`
	SuccessRate    float64 `json:"success_rate"`
}

// CpnScore is the single current score of a user. Recalculation overwrites it.
type CpnScore struct {
	UserID         string         `json:"userId" db:"user_id"`
	TeamID         string         `json:"teamId,omitempty" db:"team_id"`
	Score          float64        `json:"score" db:"score"`
	CategoryScores CategoryScores `json:"categoryScores" db:"category_scores"`
	PeerPercentile int            `json:"peerPercentile" db:"peer_percentile"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time      `json:"updatedAt" db:"updated_at"`
}
