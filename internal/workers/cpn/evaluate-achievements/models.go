package evaluateachievements

type Input struct {
	UserID string `json:"userId"`
}

type UnlockedAchievement struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Trigger    string `json:"trigger"`
	Points     int    `json:"points"`
	UnlockedAt string `json:"unlockedAt"`
}

type Output struct {
	UserID        string                `json:"userId"`
	NewlyUnlocked []UnlockedAchievement `json:"newlyUnlocked"`
	NewPoints     int                   `json:"newPoints"`
	Skipped       []string              `json:"skippedAchievements,omitempty"`
	Notified      int                   `json:"notificationsSent"`
}
