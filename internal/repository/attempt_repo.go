package repository

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"prepboard-backend/internal/models"
)

// AttemptRepo is the activity log: one row per answered question.
type AttemptRepo struct {
	pool *pgxpool.Pool
}

func NewAttemptRepo(pool *pgxpool.Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

func (r *AttemptRepo) Create(ctx context.Context, a *models.AttemptRecord) error {
	a.ID = uuid.New()
	if a.AttemptedAt.IsZero() {
		a.AttemptedAt = time.Now()
	}

	query := `INSERT INTO attempts (id, user_id, question_id, subject, was_correct, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query, a.ID, a.UserID, a.QuestionID, a.Subject, a.WasCorrect, a.AttemptedAt)
	return err
}

// ListByUser returns the user's full attempt history ascending by
// attempted_at. A row that fails to scan is a data-quality problem, not a
// reason to lose the dashboard: it is logged and dropped.
func (r *AttemptRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.AttemptRecord, error) {
	query := `SELECT id, user_id, question_id, subject, was_correct, attempted_at
		FROM attempts WHERE user_id = $1 ORDER BY attempted_at ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AttemptRecord
	for rows.Next() {
		var rec models.AttemptRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.QuestionID, &rec.Subject, &rec.WasCorrect, &rec.AttemptedAt); err != nil {
			log.Printf("attempts: dropping malformed row for user %s: %v", userID, err)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ListRecentByUser returns the newest attempts first, for the history view.
func (r *AttemptRepo) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.AttemptRecord, error) {
	query := `SELECT id, user_id, question_id, subject, was_correct, attempted_at
		FROM attempts WHERE user_id = $1 ORDER BY attempted_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.AttemptRecord
	for rows.Next() {
		var rec models.AttemptRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.QuestionID, &rec.Subject, &rec.WasCorrect, &rec.AttemptedAt); err != nil {
			log.Printf("attempts: dropping malformed row for user %s: %v", userID, err)
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LatestAttemptAt returns the timestamp of the user's most recent attempt,
// or nil when the user has never attempted anything.
func (r *AttemptRepo) LatestAttemptAt(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx,
		"SELECT MAX(attempted_at) FROM attempts WHERE user_id = $1", userID,
	).Scan(&latest)
	if err != nil {
		return nil, err
	}
	return latest, nil
}
