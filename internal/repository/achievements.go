package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cpn-workers/internal/models"
)

type AchievementRepository struct {
	db *sql.DB
}

func NewAchievementRepository(db *sql.DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

const catalogQuery = `SELECT id, name, description, trigger, threshold, category, points
FROM achievements ORDER BY points ASC, id ASC`

// Catalog returns every achievement definition.
func (r *AchievementRepository) Catalog(ctx context.Context) ([]models.Achievement, error) {
	rows, err := r.db.QueryContext(ctx, catalogQuery)
	if err != nil {
		return nil, fmt.Errorf("load achievement catalog: %w", err)
	}
	defer rows.Close()

	out := []models.Achievement{}
	for rows.Next() {
		var (
			a        models.Achievement
			desc     sql.NullString
			category sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.Name, &desc, &a.Trigger, &a.Threshold, &category, &a.Points); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		a.Description = desc.String
		a.Category = category.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievements: %w", err)
	}
	return out, nil
}

const unlockedQuery = `SELECT achievement_id FROM user_achievements WHERE user_id = $1`

// Unlocked returns the set of achievement IDs the user already holds.
func (r *AchievementRepository) Unlocked(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, unlockedQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("load unlocked achievements: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan unlocked achievement: %w", err)
		}
		out[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unlocked achievements: %w", err)
	}
	return out, nil
}

const unlockQuery = `INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, achievement_id) DO NOTHING`

// Unlock records an unlock and reports whether it was new.
func (r *AchievementRepository) Unlock(ctx context.Context, userID, achievementID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, unlockQuery, userID, achievementID, at)
	if err != nil {
		return false, mapWriteError("unlock achievement", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unlock achievement: %w", err)
	}
	return n > 0, nil
}
