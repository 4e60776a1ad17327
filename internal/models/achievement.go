package models

import "time"

// Achievement is a catalog entry. Trigger names one of the closed set of
// triggers understood by the achievements package; Threshold and Category
// parameterise it.
type Achievement struct {
	ID          string  `json:"id" db:"id"`
	Name        string  `json:"name" db:"name"`
	Description string  `json:"description" db:"description"`
	Trigger     string  `json:"trigger" db:"trigger"`
	Threshold   float64 `json:"threshold" db:"threshold"`
	Category    string  `json:"category,omitempty" db:"category"`
	Points      int     `json:"points" db:"points"`
}

// UserAchievement records an unlock. Unlocks are never revoked.
type UserAchievement struct {
	UserID        string    `json:"userId" db:"user_id"`
	AchievementID string    `json:"achievementId" db:"achievement_id"`
	UnlockedAt    time.Time `json:"unlockedAt" db:"unlocked_at"`
}
