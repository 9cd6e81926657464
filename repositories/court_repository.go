package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/padelpoint/tournament-service/models"
)

var (
	ErrCourtNotFound     = errors.New("court not found")
	ErrCourtNameConflict = errors.New("court name already exists")
)

type CourtRepository interface {
	Create(ctx context.Context, court *models.Court) error
	GetByID(ctx context.Context, id int) (*models.Court, error)
	List(ctx context.Context) ([]*models.Court, error)
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) Create(ctx context.Context, court *models.Court) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO courts (name) VALUES ($1) RETURNING id, created_at`,
		court.Name,
	).Scan(&court.ID, &court.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrCourtNameConflict
	}
	return err
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id int) (*models.Court, error) {
	court := &models.Court{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM courts WHERE id = $1`, id,
	).Scan(&court.ID, &court.Name, &court.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return court, nil
}

func (r *postgresCourtRepository) List(ctx context.Context) ([]*models.Court, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM courts ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courts := make([]*models.Court, 0)
	for rows.Next() {
		court := &models.Court{}
		if scanErr := rows.Scan(&court.ID, &court.Name, &court.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		courts = append(courts, court)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return courts, nil
}
