package models

import "time"

// Interaction is one logged encounter. The list of a user's interactions is append-only
// and is the sole input to score calculation.
type Interaction struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	Date        time.Time `json:"date" db:"date"`
	Cost        float64   `json:"cost" db:"cost"`
	TimeMinutes int       `json:"timeMinutes" db:"time_minutes"`
	Nuts        int       `json:"nuts" db:"nuts"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Successful reports whether the encounter produced at least one outcome.
func (i Interaction) Successful() bool {
	return i.Nuts > 0
}
