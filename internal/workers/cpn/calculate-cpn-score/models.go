package calculatecpnscore

import (
	"cpn-workers/internal/models"
	"cpn-workers/internal/scoring"
)

type Input struct {
	UserID    string `json:"userId"`
	TeamID    string `json:"teamId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type Output struct {
	UserID         string                 `json:"userId"`
	Score          float64                `json:"score"`
	CategoryScores models.CategoryScores  `json:"categoryScores"`
	PeerPercentile int                    `json:"peerPercentile"`
	PeerComparison scoring.PeerComparison `json:"peerComparison"`
	Metrics        scoring.Metrics        `json:"metrics"`
	Indexed        bool                   `json:"indexed"`
	CalculatedAt   string                 `json:"calculatedAt"`
}
