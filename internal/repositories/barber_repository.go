package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barbershop_backend/internal/models"

	"github.com/lib/pq"
)

// BarberRepository defines the interface for barber persistence.
//
// A barber's "busy" state is never stored: it is derived from having a
// ticket currently in progress, so reads compute it with an EXISTS subquery.
type BarberRepository interface {
	CreateBarber(executor SQLExecutor, barber *models.Barber) (int64, error)
	GetBarberByID(barberID int64) (*models.Barber, error)
	GetBarberByUserID(userID int64) (*models.Barber, error)
	GetBarbers(includeOffline bool) ([]models.Barber, error)
	UpdateBarber(executor SQLExecutor, barber *models.Barber) error
	UpdateBarberStatus(executor SQLExecutor, barberID int64, status string) error
	UpdateCommissionPercentage(executor SQLExecutor, barberID int64, percentage float64) error
	IsBarberAvailable(executor SQLExecutor, barberID int64) (bool, error)
	DeleteBarber(executor SQLExecutor, barberID int64) error
}

type barberRepository struct {
	db *sql.DB
}

// NewBarberRepository creates a new instance of BarberRepository.
func NewBarberRepository(db *sql.DB) BarberRepository {
	return &barberRepository{db: db}
}

const barberBusyExpr = `EXISTS (
	SELECT 1 FROM tickets t
	WHERE t.barber_id = b.id AND t.status = 'in_progress'
)`

func (r *barberRepository) CreateBarber(executor SQLExecutor, barber *models.Barber) (int64, error) {
	query := `INSERT INTO barbers (user_id, display_name, available, commission_percentage, status, direct_entry, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	now := time.Now()
	if barber.Status == "" {
		barber.Status = models.BarberStatusOffline
	}
	err := executor.QueryRow(query,
		barber.UserID, barber.DisplayName, barber.Available, barber.CommissionPercentage,
		barber.Status, barber.DirectEntry, now, now,
	).Scan(&barber.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, fmt.Errorf("%w: barber for user ID %d already exists: %v", ErrDuplicateKey, barber.UserID, err)
		}
		return 0, fmt.Errorf("%w: creating barber: %v", ErrDatabaseError, err)
	}
	barber.CreatedAt = now
	barber.UpdatedAt = now
	return barber.ID, nil
}

func (r *barberRepository) scanBarber(row scanner) (*models.Barber, error) {
	barber := &models.Barber{}
	var busy bool
	err := row.Scan(
		&barber.ID, &barber.UserID, &barber.DisplayName, &barber.Available, &barber.CommissionPercentage,
		&barber.Status, &barber.DirectEntry, &busy, &barber.CreatedAt, &barber.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if busy && barber.Status == models.BarberStatusOnline {
		barber.Status = models.BarberStatusBusy
	}
	return barber, nil
}

func (r *barberRepository) GetBarberByID(barberID int64) (*models.Barber, error) {
	query := `SELECT b.id, b.user_id, b.display_name, b.available, b.commission_percentage, b.status, b.direct_entry, ` + barberBusyExpr + `, b.created_at, b.updated_at
	          FROM barbers b
	          WHERE b.id = $1`
	barber, err := r.scanBarber(r.db.QueryRow(query, barberID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting barber by ID %d: %v", ErrDatabaseError, barberID, err)
	}
	return barber, nil
}

func (r *barberRepository) GetBarberByUserID(userID int64) (*models.Barber, error) {
	query := `SELECT b.id, b.user_id, b.display_name, b.available, b.commission_percentage, b.status, b.direct_entry, ` + barberBusyExpr + `, b.created_at, b.updated_at
	          FROM barbers b
	          WHERE b.user_id = $1`
	barber, err := r.scanBarber(r.db.QueryRow(query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting barber by user ID %d: %v", ErrDatabaseError, userID, err)
	}
	return barber, nil
}

func (r *barberRepository) GetBarbers(includeOffline bool) ([]models.Barber, error) {
	barbers := []models.Barber{}
	query := `SELECT b.id, b.user_id, b.display_name, b.available, b.commission_percentage, b.status, b.direct_entry, ` + barberBusyExpr + `, b.created_at, b.updated_at
	          FROM barbers b`
	if !includeOffline {
		query += ` WHERE b.status <> 'offline'`
	}
	query += ` ORDER BY b.display_name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying barbers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		barber, err := r.scanBarber(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning barber: %v", ErrDatabaseError, err)
		}
		barbers = append(barbers, *barber)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating barber rows: %v", ErrDatabaseError, err)
	}
	return barbers, nil
}

func (r *barberRepository) UpdateBarber(executor SQLExecutor, barber *models.Barber) error {
	query := `UPDATE barbers
	          SET display_name = $1, available = $2, commission_percentage = $3, direct_entry = $4, updated_at = $5
	          WHERE id = $6`
	result, err := executor.Exec(query,
		barber.DisplayName, barber.Available, barber.CommissionPercentage, barber.DirectEntry, time.Now(), barber.ID)
	if err != nil {
		return fmt.Errorf("%w: updating barber ID %d: %v", ErrDatabaseError, barber.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for barber update ID %d: %v", ErrDatabaseError, barber.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *barberRepository) UpdateBarberStatus(executor SQLExecutor, barberID int64, status string) error {
	result, err := executor.Exec(`UPDATE barbers SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), barberID)
	if err != nil {
		return fmt.Errorf("%w: updating status for barber ID %d: %v", ErrDatabaseError, barberID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for barber status ID %d: %v", ErrDatabaseError, barberID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *barberRepository) UpdateCommissionPercentage(executor SQLExecutor, barberID int64, percentage float64) error {
	result, err := executor.Exec(`UPDATE barbers SET commission_percentage = $1, updated_at = $2 WHERE id = $3`,
		percentage, time.Now(), barberID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23514" {
			return fmt.Errorf("%w: commission percentage %.2f out of range: %v", ErrDatabaseError, percentage, err)
		}
		return fmt.Errorf("%w: updating commission for barber ID %d: %v", ErrDatabaseError, barberID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for barber commission ID %d: %v", ErrDatabaseError, barberID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsBarberAvailable reports whether the barber is online and has no
// in-progress ticket. Runs on the caller's executor so assignment checks
// stay inside the transfer or call transaction.
func (r *barberRepository) IsBarberAvailable(executor SQLExecutor, barberID int64) (bool, error) {
	var available bool
	query := `SELECT b.available AND b.status = 'online' AND NOT ` + barberBusyExpr + `
	          FROM barbers b
	          WHERE b.id = $1`
	err := executor.QueryRow(query, barberID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("%w: checking availability for barber ID %d: %v", ErrDatabaseError, barberID, err)
	}
	return available, nil
}

func (r *barberRepository) DeleteBarber(executor SQLExecutor, barberID int64) error {
	result, err := executor.Exec(`DELETE FROM barbers WHERE id = $1`, barberID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("%w: barber ID %d has history (constraint: %s): %v", ErrDatabaseError, barberID, pqErr.Constraint, err)
		}
		return fmt.Errorf("%w: deleting barber ID %d: %v", ErrDatabaseError, barberID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting barber ID %d: %v", ErrDatabaseError, barberID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
