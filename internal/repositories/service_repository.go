package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barbershop_backend/internal/models"

	"github.com/lib/pq"
)

// ServiceRepository defines the interface for service catalog persistence.
type ServiceRepository interface {
	CreateService(executor SQLExecutor, service *models.Service) (int64, error)
	GetServiceByID(serviceID int64) (*models.Service, error)
	GetServices(activeOnly bool) ([]models.Service, error)
	// GetActiveServicesByIDs resolves the requested cart against the catalog
	// inside the caller's transaction. IDs that are missing or inactive are
	// silently dropped; the caller decides whether an empty result is an error.
	GetActiveServicesByIDs(executor SQLExecutor, serviceIDs []int64) ([]models.Service, error)
	UpdateService(executor SQLExecutor, service *models.Service) error
	SetServiceActive(executor SQLExecutor, serviceID int64, active bool) error
	IsServiceReferenced(serviceID int64) (bool, error)
	DeleteService(executor SQLExecutor, serviceID int64) error
}

type serviceRepository struct {
	db *sql.DB
}

// NewServiceRepository creates a new instance of ServiceRepository.
func NewServiceRepository(db *sql.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) CreateService(executor SQLExecutor, service *models.Service) (int64, error) {
	query := `INSERT INTO services (name, price, duration_minutes, active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	if service.CreatedAt.IsZero() {
		service.CreatedAt = time.Now()
	}
	if service.UpdatedAt.IsZero() {
		service.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		service.Name, service.Price, service.DurationMinutes, service.Active,
		service.CreatedAt, service.UpdatedAt,
	).Scan(&service.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating service: %v", ErrDatabaseError, err)
	}
	return service.ID, nil
}

func (r *serviceRepository) GetServiceByID(serviceID int64) (*models.Service, error) {
	service := &models.Service{}
	query := `SELECT id, name, price, duration_minutes, active, created_at, updated_at
	          FROM services
	          WHERE id = $1`
	err := r.db.QueryRow(query, serviceID).Scan(
		&service.ID, &service.Name, &service.Price, &service.DurationMinutes, &service.Active,
		&service.CreatedAt, &service.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting service by ID %d: %v", ErrDatabaseError, serviceID, err)
	}
	return service, nil
}

func (r *serviceRepository) GetServices(activeOnly bool) ([]models.Service, error) {
	services := []models.Service{}
	query := `SELECT id, name, price, duration_minutes, active, created_at, updated_at
	          FROM services`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying services: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.DurationMinutes, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning service: %v", ErrDatabaseError, err)
		}
		services = append(services, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating service rows: %v", ErrDatabaseError, err)
	}
	return services, nil
}

func (r *serviceRepository) GetActiveServicesByIDs(executor SQLExecutor, serviceIDs []int64) ([]models.Service, error) {
	services := []models.Service{}
	if len(serviceIDs) == 0 {
		return services, nil
	}

	query := `SELECT id, name, price, duration_minutes, active, created_at, updated_at
	          FROM services
	          WHERE id = ANY($1) AND active = TRUE
	          ORDER BY id ASC`
	rows, err := executor.Query(query, pq.Array(serviceIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying services by IDs: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Price, &s.DurationMinutes, &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning service: %v", ErrDatabaseError, err)
		}
		services = append(services, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating service rows: %v", ErrDatabaseError, err)
	}
	return services, nil
}

func (r *serviceRepository) UpdateService(executor SQLExecutor, service *models.Service) error {
	query := `UPDATE services
	          SET name = $1, price = $2, duration_minutes = $3, active = $4, updated_at = $5
	          WHERE id = $6`
	result, err := executor.Exec(query,
		service.Name, service.Price, service.DurationMinutes, service.Active, time.Now(), service.ID)
	if err != nil {
		return fmt.Errorf("%w: updating service ID %d: %v", ErrDatabaseError, service.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for service update ID %d: %v", ErrDatabaseError, service.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *serviceRepository) SetServiceActive(executor SQLExecutor, serviceID int64, active bool) error {
	result, err := executor.Exec(`UPDATE services SET active = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now(), serviceID)
	if err != nil {
		return fmt.Errorf("%w: setting active flag for service ID %d: %v", ErrDatabaseError, serviceID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for service ID %d: %v", ErrDatabaseError, serviceID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *serviceRepository) IsServiceReferenced(serviceID int64) (bool, error) {
	var referenced bool
	query := `SELECT EXISTS (SELECT 1 FROM cart_lines WHERE service_id = $1)
	          OR EXISTS (SELECT 1 FROM attendance_items WHERE service_id = $1)`
	if err := r.db.QueryRow(query, serviceID).Scan(&referenced); err != nil {
		return false, fmt.Errorf("%w: checking references for service ID %d: %v", ErrDatabaseError, serviceID, err)
	}
	return referenced, nil
}

func (r *serviceRepository) DeleteService(executor SQLExecutor, serviceID int64) error {
	result, err := executor.Exec(`DELETE FROM services WHERE id = $1`, serviceID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("%w: service ID %d is referenced (constraint: %s): %v", ErrDatabaseError, serviceID, pqErr.Constraint, err)
		}
		return fmt.Errorf("%w: deleting service ID %d: %v", ErrDatabaseError, serviceID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting service ID %d: %v", ErrDatabaseError, serviceID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
