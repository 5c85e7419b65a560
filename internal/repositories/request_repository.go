package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"barbershop_backend/internal/models"
)

// RequestRepository defines the interface for queue request persistence.
//
// MarkApproved and MarkRejected are guarded the same way ticket transitions
// are: the UPDATE only fires while the row is still pending, so two admins
// racing to process the same request cannot both succeed.
type RequestRepository interface {
	CreateRequest(executor SQLExecutor, request *models.QueueRequest) (int64, error)
	GetRequestByID(requestID int64) (*models.QueueRequest, error)
	ListRequests(status string, requestedBy *int64) ([]models.QueueRequest, error)
	MarkApproved(executor SQLExecutor, requestID, processedBy, ticketID int64, adminNotes *string) error
	MarkRejected(executor SQLExecutor, requestID, processedBy int64, adminNotes *string) error
}

type requestRepository struct {
	db *sql.DB
}

// NewRequestRepository creates a new instance of RequestRepository.
func NewRequestRepository(db *sql.DB) RequestRepository {
	return &requestRepository{db: db}
}

const requestColumns = `r.id, r.customer_name, r.customer_phone, r.service_id, r.barber_id,
	r.requested_by, r.status, r.admin_notes, r.processed_by, r.processed_at, r.ticket_id,
	r.created_at, r.updated_at, s.name, rb.display_name`

func scanRequest(row scanner) (*models.QueueRequest, error) {
	request := &models.QueueRequest{}
	err := row.Scan(
		&request.ID, &request.CustomerName, &request.CustomerPhone, &request.ServiceID, &request.BarberID,
		&request.RequestedBy, &request.Status, &request.AdminNotes, &request.ProcessedBy, &request.ProcessedAt,
		&request.TicketID, &request.CreatedAt, &request.UpdatedAt, &request.ServiceName, &request.RequesterName,
	)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (r *requestRepository) CreateRequest(executor SQLExecutor, request *models.QueueRequest) (int64, error) {
	query := `INSERT INTO queue_requests (customer_name, customer_phone, service_id, barber_id, requested_by, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	now := time.Now()
	request.Status = models.RequestStatusPending
	err := executor.QueryRow(query,
		request.CustomerName, request.CustomerPhone, request.ServiceID, request.BarberID,
		request.RequestedBy, request.Status, now, now,
	).Scan(&request.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating queue request: %v", ErrDatabaseError, err)
	}
	request.CreatedAt = now
	request.UpdatedAt = now
	return request.ID, nil
}

func (r *requestRepository) GetRequestByID(requestID int64) (*models.QueueRequest, error) {
	query := `SELECT ` + requestColumns + `
	          FROM queue_requests r
	          JOIN services s ON s.id = r.service_id
	          JOIN barbers rb ON rb.id = r.requested_by
	          WHERE r.id = $1`
	request, err := scanRequest(r.db.QueryRow(query, requestID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting queue request by ID %d: %v", ErrDatabaseError, requestID, err)
	}
	return request, nil
}

func (r *requestRepository) ListRequests(status string, requestedBy *int64) ([]models.QueueRequest, error) {
	requests := []models.QueueRequest{}
	query := `SELECT ` + requestColumns + `
	          FROM queue_requests r
	          JOIN services s ON s.id = r.service_id
	          JOIN barbers rb ON rb.id = r.requested_by`
	conditions := []string{}
	args := []interface{}{}
	if status != "" {
		args = append(args, status)
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if requestedBy != nil {
		args = append(args, *requestedBy)
		conditions = append(conditions, fmt.Sprintf("r.requested_by = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY r.created_at ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying queue requests: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning queue request: %v", ErrDatabaseError, err)
		}
		requests = append(requests, *request)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating queue request rows: %v", ErrDatabaseError, err)
	}
	return requests, nil
}

func (r *requestRepository) markProcessed(executor SQLExecutor, requestID int64, query string, args ...interface{}) error {
	result, err := executor.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("%w: processing queue request ID %d: %v", ErrDatabaseError, requestID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for queue request ID %d: %v", ErrDatabaseError, requestID, err)
	}
	if rowsAffected == 1 {
		return nil
	}

	var current string
	err = executor.QueryRow(`SELECT status FROM queue_requests WHERE id = $1`, requestID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: re-reading queue request ID %d: %v", ErrDatabaseError, requestID, err)
	}
	return fmt.Errorf("%w: queue request ID %d is %q, wanted pending", ErrStaleStatus, requestID, current)
}

func (r *requestRepository) MarkApproved(executor SQLExecutor, requestID, processedBy, ticketID int64, adminNotes *string) error {
	query := `UPDATE queue_requests
	          SET status = 'approved', processed_by = $1, processed_at = $2, ticket_id = $3, admin_notes = $4, updated_at = $2
	          WHERE id = $5 AND status = 'pending'`
	return r.markProcessed(executor, requestID, query, processedBy, time.Now(), ticketID, adminNotes, requestID)
}

func (r *requestRepository) MarkRejected(executor SQLExecutor, requestID, processedBy int64, adminNotes *string) error {
	query := `UPDATE queue_requests
	          SET status = 'rejected', processed_by = $1, processed_at = $2, admin_notes = $3, updated_at = $2
	          WHERE id = $4 AND status = 'pending'`
	return r.markProcessed(executor, requestID, query, processedBy, time.Now(), adminNotes, requestID)
}
