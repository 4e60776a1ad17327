package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cpn-workers/internal/models"
)

// PeerSource yields the comparison population for a user. teamID narrows it
// to one team when non-empty.
type PeerSource interface {
	PeerScores(ctx context.Context, userID, teamID string) ([]float64, error)
}

// ScoreRepository keeps exactly one cpn_scores row per user.
type ScoreRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewScoreRepository(db *sql.DB) *ScoreRepository {
	return &ScoreRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const upsertScoreQuery = `INSERT INTO cpn_scores
	(user_id, team_id, score, cost_efficiency, time_management, success_rate, peer_percentile, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (user_id) DO UPDATE SET
	team_id = EXCLUDED.team_id,
	score = EXCLUDED.score,
	cost_efficiency = EXCLUDED.cost_efficiency,
	time_management = EXCLUDED.time_management,
	success_rate = EXCLUDED.success_rate,
	peer_percentile = EXCLUDED.peer_percentile,
	updated_at = EXCLUDED.updated_at
RETURNING created_at, updated_at`

// Upsert replaces the stored score of s.UserID. Concurrent writers race; the last one wins.
func (r *ScoreRepository) Upsert(ctx context.Context, s *models.CpnScore) error {
	now := r.now()
	err := r.db.QueryRowContext(ctx, upsertScoreQuery,
		s.UserID, nullString(s.TeamID), s.Score,
		s.CategoryScores.CostEfficiency, s.CategoryScores.TimeManagement, s.CategoryScores.SuccessRate,
		s.PeerPercentile, now,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return mapWriteError("upsert score", err)
	}
	return nil
}

const getScoreQuery = `SELECT user_id, team_id, score, cost_efficiency, time_management, success_rate,
	peer_percentile, created_at, updated_at
FROM cpn_scores WHERE user_id = $1`

// Get returns ErrNotFound when the user has never been scored.
func (r *ScoreRepository) Get(ctx context.Context, userID string) (*models.CpnScore, error) {
	var (
		s    models.CpnScore
		team sql.NullString
	)
	err := r.db.QueryRowContext(ctx, getScoreQuery, userID).Scan(
		&s.UserID, &team, &s.Score,
		&s.CategoryScores.CostEfficiency, &s.CategoryScores.TimeManagement, &s.CategoryScores.SuccessRate,
		&s.PeerPercentile, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("score for %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get score: %w", err)
	}
	s.TeamID = team.String
	return &s, nil
}

const (
	peerScoresQuery     = `SELECT score FROM cpn_scores WHERE user_id <> $1`
	teamPeerScoresQuery = `SELECT score FROM cpn_scores WHERE user_id <> $1 AND team_id = $2`
)

// PeerScores returns every other user's score, or the team's when teamID is set.
func (r *ScoreRepository) PeerScores(ctx context.Context, userID, teamID string) ([]float64, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if teamID != "" {
		rows, err = r.db.QueryContext(ctx, teamPeerScoresQuery, userID, teamID)
	} else {
		rows, err = r.db.QueryContext(ctx, peerScoresQuery, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("peer scores: %w", err)
	}
	defer rows.Close()

	scores := []float64{}
	for rows.Next() {
		var s float64
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan peer score: %w", err)
		}
		scores = append(scores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate peer scores: %w", err)
	}
	return scores, nil
}
