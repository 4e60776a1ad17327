// Package repository persists CPN data in Postgres and mirrors scores into Elasticsearch.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cpn-workers/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

const pqUniqueViolation = "23505"

// InteractionRepository reads and appends user_interactions rows.
type InteractionRepository struct {
	db *sql.DB
}

func NewInteractionRepository(db *sql.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

const listInteractionsQuery = `SELECT id, user_id, date, cost, time_minutes, nuts, notes, created_at
FROM user_interactions WHERE user_id = $1 ORDER BY date ASC, created_at ASC`

// ListByUser returns every interaction of userID, oldest first.
func (r *InteractionRepository) ListByUser(ctx context.Context, userID string) ([]models.Interaction, error) {
	rows, err := r.db.QueryContext(ctx, listInteractionsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	out := []models.Interaction{}
	for rows.Next() {
		var (
			in    models.Interaction
			notes sql.NullString
		)
		if err := rows.Scan(&in.ID, &in.UserID, &in.Date, &in.Cost, &in.TimeMinutes, &in.Nuts, &notes, &in.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		in.Notes = notes.String
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interactions: %w", err)
	}
	return out, nil
}

const insertInteractionQuery = `INSERT INTO user_interactions (id, user_id, date, cost, time_minutes, nuts, notes, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Insert appends an interaction, assigning an ID and CreatedAt when unset.
func (r *InteractionRepository) Insert(ctx context.Context, in *models.Interaction) error {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, insertInteractionQuery,
		in.ID, in.UserID, in.Date, in.Cost, in.TimeMinutes, in.Nuts, nullString(in.Notes), in.CreatedAt)
	if err != nil {
		return mapWriteError("insert interaction", err)
	}
	return nil
}

const interactionExistsQuery = `SELECT EXISTS (SELECT 1 FROM user_interactions WHERE id = $1 AND user_id = $2)`

// Exists reports whether userID already has the interaction with id.
func (r *InteractionRepository) Exists(ctx context.Context, userID, id string) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, interactionExistsQuery, id, userID).Scan(&found); err != nil {
		return false, fmt.Errorf("check interaction: %w", err)
	}
	return found, nil
}

func mapWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return fmt.Errorf("%s: %w: %s", op, ErrDuplicate, pqErr.Constraint)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
