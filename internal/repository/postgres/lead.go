package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"doorstep/internal/domain"
	"doorstep/internal/repository"
)

const leadColumns = `id, tracking_id, customer_name, customer_phone, address, city, location_lat, location_lng,
	vehicle_type, vehicle_brand, vehicle_model, service_id, mechanic_id, slot_start, slot_end,
	status, total_amount, created_at, updated_at`

// LeadRepository is a PostgreSQL implementation of repository.LeadRepository.
// Status changes are a single conditional UPDATE followed by the history
// insert, both in one transaction.
type LeadRepository struct {
	db *sql.DB
	q  Querier
}

// NewLeadRepository creates a new PostgreSQL lead repository.
func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db, q: db}
}

// NewLeadRepositoryWithTx creates a lead repository using a transaction.
func NewLeadRepositoryWithTx(tx *sql.Tx) *LeadRepository {
	return &LeadRepository{q: tx}
}

// Create persists a new lead together with its first history entry.
func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead, initial *domain.StatusUpdate) error {
	return r.inTx(ctx, func(q Querier) error {
		query := `
			INSERT INTO leads (id, tracking_id, customer_name, customer_phone, address, city, location_lat, location_lng,
				vehicle_type, vehicle_brand, vehicle_model, service_id, mechanic_id, slot_start, slot_end,
				status, total_amount, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`

		var lat, lng sql.NullFloat64
		if lead.Location != nil {
			lat = sql.NullFloat64{Float64: lead.Location.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: lead.Location.Lng, Valid: true}
		}

		_, err := q.ExecContext(ctx, query,
			lead.ID,
			lead.TrackingID,
			lead.CustomerName,
			lead.CustomerPhone,
			lead.Address,
			lead.City,
			lat,
			lng,
			lead.VehicleType,
			lead.VehicleBrand,
			lead.VehicleModel,
			nullString(lead.ServiceID),
			nullString(lead.MechanicID),
			nullTime(lead.SlotStart),
			nullTime(lead.SlotEnd),
			lead.Status,
			nullAmount(lead.TotalAmount),
			lead.CreatedAt,
			lead.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return repository.ErrDuplicateTrackingID
			}
			return err
		}

		if initial == nil {
			return nil
		}
		initial.LeadID = lead.ID
		return insertStatusUpdate(ctx, q, initial)
	})
}

// GetByTrackingID retrieves a lead by tracking id.
func (r *LeadRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE tracking_id = $1`

	lead, err := scanLead(r.q.QueryRowContext(ctx, query, trackingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return lead, nil
}

// GetAll retrieves all leads, most recent first.
func (r *LeadRepository) GetAll(ctx context.Context) ([]*domain.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC, tracking_id DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*domain.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// CountByPhoneSince counts leads for phone created at or after since.
func (r *LeadRepository) CountByPhoneSince(ctx context.Context, phone string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM leads WHERE customer_phone = $1 AND created_at >= $2`

	var count int
	if err := r.q.QueryRowContext(ctx, query, phone, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SetStatus unconditionally sets the status and appends update.
func (r *LeadRepository) SetStatus(ctx context.Context, trackingID string, update *domain.StatusUpdate, totalAmount *float64) (*domain.Lead, error) {
	query := `
		UPDATE leads SET status = $1, updated_at = $2, total_amount = COALESCE($3, total_amount)
		WHERE tracking_id = $4
		RETURNING ` + leadColumns

	var lead *domain.Lead
	err := r.inTx(ctx, func(q Querier) error {
		var err error
		lead, err = scanLead(q.QueryRowContext(ctx, query, update.Status, update.CreatedAt, nullAmount(totalAmount), trackingID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repository.ErrNotFound
			}
			return err
		}
		update.LeadID = lead.ID
		return insertStatusUpdate(ctx, q, update)
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// AdvanceStatus sets the status only if the current status equals from.
func (r *LeadRepository) AdvanceStatus(ctx context.Context, trackingID string, from domain.LeadStatus, update *domain.StatusUpdate, totalAmount *float64) (*domain.Lead, error) {
	query := `
		UPDATE leads SET status = $1, updated_at = $2, total_amount = COALESCE($3, total_amount)
		WHERE tracking_id = $4 AND status = $5
		RETURNING ` + leadColumns

	var lead *domain.Lead
	err := r.inTx(ctx, func(q Querier) error {
		var err error
		lead, err = scanLead(q.QueryRowContext(ctx, query, update.Status, update.CreatedAt, nullAmount(totalAmount), trackingID, from))
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return err
			}
			var exists bool
			if err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE tracking_id = $1)`, trackingID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return repository.ErrNotFound
			}
			return repository.ErrStatusConflict
		}
		update.LeadID = lead.ID
		return insertStatusUpdate(ctx, q, update)
	})
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// ListStatusUpdates returns the history of a lead, oldest first.
func (r *LeadRepository) ListStatusUpdates(ctx context.Context, leadID string) ([]*domain.StatusUpdate, error) {
	query := `SELECT id, lead_id, status, message, created_at FROM lead_status_updates WHERE lead_id = $1 ORDER BY created_at ASC, seq ASC`

	rows, err := r.q.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var updates []*domain.StatusUpdate
	for rows.Next() {
		var u domain.StatusUpdate
		if err := rows.Scan(&u.ID, &u.LeadID, &u.Status, &u.Message, &u.CreatedAt); err != nil {
			return nil, err
		}
		updates = append(updates, &u)
	}
	return updates, rows.Err()
}

func (r *LeadRepository) inTx(ctx context.Context, fn func(q Querier) error) error {
	if r.db == nil {
		return fn(r.q)
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error { return fn(tx) })
}

func insertStatusUpdate(ctx context.Context, q Querier, u *domain.StatusUpdate) error {
	query := `INSERT INTO lead_status_updates (id, lead_id, status, message, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := q.ExecContext(ctx, query, u.ID, u.LeadID, u.Status, u.Message, u.CreatedAt)
	return err
}

func nullAmount(amount *float64) sql.NullFloat64 {
	if amount == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *amount, Valid: true}
}

func scanLead(row rowScanner) (*domain.Lead, error) {
	var lead domain.Lead
	var lat, lng, total sql.NullFloat64
	var serviceID, mechanicID sql.NullString
	var slotStart, slotEnd sql.NullTime

	err := row.Scan(
		&lead.ID,
		&lead.TrackingID,
		&lead.CustomerName,
		&lead.CustomerPhone,
		&lead.Address,
		&lead.City,
		&lat,
		&lng,
		&lead.VehicleType,
		&lead.VehicleBrand,
		&lead.VehicleModel,
		&serviceID,
		&mechanicID,
		&slotStart,
		&slotEnd,
		&lead.Status,
		&total,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lat.Valid && lng.Valid {
		lead.Location = &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	if serviceID.Valid {
		lead.ServiceID = serviceID.String
	}
	if mechanicID.Valid {
		lead.MechanicID = mechanicID.String
	}
	if slotStart.Valid {
		lead.SlotStart = slotStart.Time
	}
	if slotEnd.Valid {
		lead.SlotEnd = slotEnd.Time
	}
	if total.Valid {
		amount := total.Float64
		lead.TotalAmount = &amount
	}

	return &lead, nil
}

var _ repository.LeadRepository = (*LeadRepository)(nil)
