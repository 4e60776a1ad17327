package repository

import (
	"context"
	"database/sql"
	"time"

	"cpn-workers/internal/models"
)

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const upsertProfileQuery = `INSERT INTO user_profiles (user_id, first_name, age, ethnicity, rating, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $6)
ON CONFLICT (user_id) DO UPDATE SET
	first_name = EXCLUDED.first_name,
	age = EXCLUDED.age,
	ethnicity = EXCLUDED.ethnicity,
	rating = EXCLUDED.rating,
	updated_at = EXCLUDED.updated_at`

// Upsert stores the profile, overwriting an earlier one for the same user.
func (r *ProfileRepository) Upsert(ctx context.Context, p *models.UserProfile) error {
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, upsertProfileQuery,
		p.UserID, p.FirstName, p.Age, nullString(p.Ethnicity), p.Rating, now); err != nil {
		return mapWriteError("upsert profile", err)
	}
	p.UpdatedAt = now
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	return nil
}
