package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"agri-advisor-backend/internal/models"
)

type ContactRepo struct {
	pool *pgxpool.Pool
}

func NewContactRepo(pool *pgxpool.Pool) *ContactRepo {
	return &ContactRepo{pool: pool}
}

func (r *ContactRepo) Create(ctx context.Context, m *models.ContactMessage) error {
	m.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO contact_messages (id, name, email, subject, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		m.ID, m.Name, m.Email, m.Subject, m.Message,
	).Scan(&m.CreatedAt)
}
