package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"agri-advisor-backend/internal/models"
)

type JobRepo struct {
	pool *pgxpool.Pool
}

func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

func (r *JobRepo) Create(ctx context.Context, j *models.AnalysisJob) error {
	j.ID = uuid.New()
	j.Status = models.JobPending
	j.RetryCount = 0
	if j.MaxRetries == 0 {
		j.MaxRetries = 3
	}

	query := `INSERT INTO analysis_jobs (id, user_id, status, image_path, retry_count, max_retries)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		j.ID, j.UserID, j.Status, j.ImagePath, j.RetryCount, j.MaxRetries,
	).Scan(&j.CreatedAt)
}

func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	j := &models.AnalysisJob{}
	query := `SELECT id, user_id, status, image_path, result_json, error_message, retry_count, max_retries, created_at, completed_at
		FROM analysis_jobs WHERE id = $1`

	var result []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&j.ID, &j.UserID, &j.Status, &j.ImagePath, &result, &j.ErrorMessage,
		&j.RetryCount, &j.MaxRetries, &j.CreatedAt, &j.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(result) > 0 {
		j.ResultJSON = json.RawMessage(result)
	}
	return j, nil
}

func (r *JobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := "UPDATE analysis_jobs SET status = $1 WHERE id = $2"
	if status == models.JobCompleted || status == models.JobFailed {
		now := time.Now()
		query = "UPDATE analysis_jobs SET status = $1, completed_at = $2 WHERE id = $3"
		_, err := r.pool.Exec(ctx, query, status, now, id)
		return err
	}
	_, err := r.pool.Exec(ctx, query, status, id)
	return err
}

// Complete stores the analysis result and marks the job completed.
func (r *JobRepo) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE analysis_jobs SET status = $1, result_json = $2, completed_at = $3 WHERE id = $4",
		models.JobCompleted, []byte(result), time.Now(), id,
	)
	return err
}

func (r *JobRepo) UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE analysis_jobs SET error_message = $1, retry_count = $2 WHERE id = $3",
		errMsg, retryCount, id,
	)
	return err
}
