package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/lib/pq"

	"doorstep/internal/domain"
	"doorstep/internal/repository"
)

const mechanicColumns = `id, name, phone, lat, lng, city, skills, rating, jobs_done, service_radius_km, is_active, created_at`

// MechanicRepository is a PostgreSQL implementation of repository.MechanicRepository.
// Open slots live in mechanic_slots and are attached after the main query.
type MechanicRepository struct {
	db *sql.DB
	q  Querier
}

// NewMechanicRepository creates a new PostgreSQL mechanic repository.
func NewMechanicRepository(db *sql.DB) *MechanicRepository {
	return &MechanicRepository{db: db, q: db}
}

// NewMechanicRepositoryWithTx creates a mechanic repository using a transaction.
func NewMechanicRepositoryWithTx(tx *sql.Tx) *MechanicRepository {
	return &MechanicRepository{q: tx}
}

// GetAll retrieves all mechanics ordered by ID.
func (r *MechanicRepository) GetAll(ctx context.Context) ([]*domain.Mechanic, error) {
	query := `SELECT ` + mechanicColumns + ` FROM mechanics ORDER BY id`
	return r.list(ctx, query)
}

// GetByID retrieves a mechanic by ID.
func (r *MechanicRepository) GetByID(ctx context.Context, id string) (*domain.Mechanic, error) {
	query := `SELECT ` + mechanicColumns + ` FROM mechanics WHERE id = $1`

	m, err := scanMechanic(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := r.attachSlots(ctx, []*domain.Mechanic{m}); err != nil {
		return nil, err
	}
	return m, nil
}

// GetByCity retrieves mechanics whose city matches, ignoring case.
func (r *MechanicRepository) GetByCity(ctx context.Context, city string) ([]*domain.Mechanic, error) {
	query := `SELECT ` + mechanicColumns + ` FROM mechanics WHERE LOWER(city) = LOWER(TRIM($1)) ORDER BY id`
	return r.list(ctx, query, city)
}

// Upsert creates or replaces a mechanic together with its slots.
func (r *MechanicRepository) Upsert(ctx context.Context, mechanic *domain.Mechanic) error {
	if err := mechanic.Validate(); err != nil {
		return err
	}

	createdAt := mechanic.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return r.inTx(ctx, func(q Querier) error {
		query := `
			INSERT INTO mechanics (id, name, phone, lat, lng, city, skills, rating, jobs_done, service_radius_km, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				phone = EXCLUDED.phone,
				lat = EXCLUDED.lat,
				lng = EXCLUDED.lng,
				city = EXCLUDED.city,
				skills = EXCLUDED.skills,
				rating = EXCLUDED.rating,
				jobs_done = EXCLUDED.jobs_done,
				service_radius_km = EXCLUDED.service_radius_km,
				is_active = EXCLUDED.is_active
		`
		_, err := q.ExecContext(ctx, query,
			mechanic.ID,
			mechanic.Name,
			mechanic.Phone,
			mechanic.Lat,
			mechanic.Lng,
			mechanic.City,
			pq.Array(textArray(mechanic.Skills)),
			mechanic.Rating,
			mechanic.JobsDone,
			mechanic.ServiceRadiusKm,
			mechanic.IsActive,
			createdAt,
		)
		if err != nil {
			return err
		}
		return replaceSlots(ctx, q, mechanic.ID, mechanic.AvailableSlots)
	})
}

// SetActive toggles the active flag of a mechanic.
func (r *MechanicRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE mechanics SET is_active = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, active, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SetAvailability replaces the open slots of a mechanic.
func (r *MechanicRepository) SetAvailability(ctx context.Context, id string, slots []time.Time) error {
	return r.inTx(ctx, func(q Querier) error {
		var exists bool
		err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM mechanics WHERE id = $1)`, id).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return repository.ErrNotFound
		}
		return replaceSlots(ctx, q, id, slots)
	})
}

func (r *MechanicRepository) inTx(ctx context.Context, fn func(q Querier) error) error {
	if r.db == nil {
		return fn(r.q)
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error { return fn(tx) })
}

func (r *MechanicRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Mechanic, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mechanics []*domain.Mechanic
	for rows.Next() {
		m, err := scanMechanic(rows)
		if err != nil {
			return nil, err
		}
		mechanics = append(mechanics, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachSlots(ctx, mechanics); err != nil {
		return nil, err
	}
	return mechanics, nil
}

func (r *MechanicRepository) attachSlots(ctx context.Context, mechanics []*domain.Mechanic) error {
	if len(mechanics) == 0 {
		return nil
	}

	ids := make([]string, len(mechanics))
	byID := make(map[string]*domain.Mechanic, len(mechanics))
	for i, m := range mechanics {
		ids[i] = m.ID
		byID[m.ID] = m
	}

	query := `SELECT mechanic_id, starts_at FROM mechanic_slots WHERE mechanic_id = ANY($1) ORDER BY mechanic_id, starts_at`
	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var mechanicID string
		var startsAt time.Time
		if err := rows.Scan(&mechanicID, &startsAt); err != nil {
			return err
		}
		if m, ok := byID[mechanicID]; ok {
			m.AvailableSlots = append(m.AvailableSlots, startsAt)
		}
	}
	return rows.Err()
}

func replaceSlots(ctx context.Context, q Querier, mechanicID string, slots []time.Time) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM mechanic_slots WHERE mechanic_id = $1`, mechanicID); err != nil {
		return err
	}

	sorted := append([]time.Time(nil), slots...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	query := `INSERT INTO mechanic_slots (mechanic_id, starts_at) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	for _, slot := range sorted {
		if _, err := q.ExecContext(ctx, query, mechanicID, slot); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMechanic(row rowScanner) (*domain.Mechanic, error) {
	var m domain.Mechanic
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Phone,
		&m.Lat,
		&m.Lng,
		&m.City,
		pq.Array(&m.Skills),
		&m.Rating,
		&m.JobsDone,
		&m.ServiceRadiusKm,
		&m.IsActive,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

var _ repository.MechanicRepository = (*MechanicRepository)(nil)
