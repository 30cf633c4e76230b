package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"doorstep/internal/domain"
	"doorstep/internal/repository"
)

const serviceColumns = `id, name, vehicle_type, category, description, base_price, duration_minutes, required_skills`

// CatalogRepository is a PostgreSQL implementation of repository.CatalogRepository.
type CatalogRepository struct {
	q Querier
}

// NewCatalogRepository creates a new PostgreSQL catalog repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{q: db}
}

// GetAll retrieves all services ordered by ID.
func (r *CatalogRepository) GetAll(ctx context.Context) ([]*domain.Service, error) {
	return r.list(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY id`)
}

// GetByID retrieves a service by ID.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	s, err := scanService(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

// GetByVehicleType retrieves services for one vehicle type.
func (r *CatalogRepository) GetByVehicleType(ctx context.Context, vehicleType domain.VehicleType) ([]*domain.Service, error) {
	return r.list(ctx, `SELECT `+serviceColumns+` FROM services WHERE vehicle_type = $1 ORDER BY id`, vehicleType)
}

// Upsert creates or replaces a service.
func (r *CatalogRepository) Upsert(ctx context.Context, service *domain.Service) error {
	query := `
		INSERT INTO services (id, name, vehicle_type, category, description, base_price, duration_minutes, required_skills)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			vehicle_type = EXCLUDED.vehicle_type,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			base_price = EXCLUDED.base_price,
			duration_minutes = EXCLUDED.duration_minutes,
			required_skills = EXCLUDED.required_skills
	`
	_, err := r.q.ExecContext(ctx, query,
		service.ID,
		service.Name,
		service.VehicleType,
		service.Category,
		service.Description,
		service.BasePrice,
		service.DurationMinutes,
		pq.Array(textArray(service.RequiredSkills)),
	)
	return err
}

func (r *CatalogRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Service, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []*domain.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func scanService(row rowScanner) (*domain.Service, error) {
	var s domain.Service
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.VehicleType,
		&s.Category,
		&s.Description,
		&s.BasePrice,
		&s.DurationMinutes,
		pq.Array(&s.RequiredSkills),
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

var _ repository.CatalogRepository = (*CatalogRepository)(nil)
