package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"agri-advisor-backend/internal/models"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

func (r *ActivityRepo) Create(ctx context.Context, a *models.Activity) error {
	a.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO activities (id, user_id, type, title, description, result)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		a.ID, a.UserID, a.Type, a.Title, a.Description, a.Result,
	).Scan(&a.CreatedAt)
}

// ListByUser returns newest first. An empty activityType matches every type.
func (r *ActivityRepo) ListByUser(ctx context.Context, userID uuid.UUID, activityType string, limit int) ([]*models.Activity, error) {
	args := []interface{}{userID}
	where := "WHERE user_id = $1"
	if activityType != "" {
		args = append(args, activityType)
		where += fmt.Sprintf(" AND type = $%d", len(args))
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT id, user_id, type, title, description, result, created_at
		FROM activities %s ORDER BY created_at DESC LIMIT $%d`, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []*models.Activity{}
	for rows.Next() {
		a := &models.Activity{}
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Title, &a.Description, &a.Result, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// CountByType returns how many activities of each type the user has.
func (r *ActivityRepo) CountByType(ctx context.Context, userID uuid.UUID) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT type, COUNT(*) FROM activities WHERE user_id = $1 GROUP BY type", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{
		models.ActivityDisease:    0,
		models.ActivityWeather:    0,
		models.ActivityMarket:     0,
		models.ActivityFertilizer: 0,
	}
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}
