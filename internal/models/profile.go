package models

import "time"

// UserProfile is the durable copy of the onboarding profile step.
type UserProfile struct {
	UserID    string    `json:"userId" db:"user_id"`
	FirstName string    `json:"firstName" db:"first_name"`
	Age       int       `json:"age" db:"age"`
	Ethnicity string    `json:"ethnicity,omitempty" db:"ethnicity"`
	Rating    float64   `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
