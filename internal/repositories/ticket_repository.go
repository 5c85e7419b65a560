package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barbershop_backend/internal/models"

	"github.com/lib/pq"
)

// TicketRepository defines the interface for ticket persistence.
//
// Every status transition is a conditional UPDATE guarded by the expected
// current status. When the guard misses (RowsAffected == 0) the caller gets
// ErrStaleStatus if the row exists in another status, ErrNotFound otherwise.
// Two racing callers can therefore never both win the same transition.
type TicketRepository interface {
	CreateTicket(executor SQLExecutor, ticket *models.Ticket) (int64, error)
	NextTicketNumber(executor SQLExecutor, day time.Time) (int64, error)

	GetTicketByID(ticketID int64) (*models.Ticket, error)
	GetTicketStatus(executor SQLExecutor, ticketID int64) (string, error)
	LockTicket(executor SQLExecutor, ticketID int64) (*models.Ticket, error)
	ListTicketsByStatus(statuses []string) ([]models.Ticket, error)
	ListWaitingTickets() ([]models.Ticket, error)
	StaleCalledTickets(cutoff time.Time) ([]int64, error)

	CountActiveTickets(executor SQLExecutor) (int, error)
	HasActiveTicketForPhone(executor SQLExecutor, phone string, excludeGroupID *string) (bool, error)
	AvgServiceDurationSeconds(sample int) (float64, error)

	MarkCalled(executor SQLExecutor, ticketID, barberID int64, at time.Time) error
	MarkStarted(executor SQLExecutor, ticketID, barberID int64, at time.Time) error
	MarkCompleted(executor SQLExecutor, ticketID int64, at time.Time) error
	MarkNoShow(executor SQLExecutor, ticketID int64) error
	MarkRemoved(executor SQLExecutor, ticketID int64) error
	UpdateTicketBarber(executor SQLExecutor, ticketID int64, barberID int64) error

	InsertCartLine(executor SQLExecutor, line *models.CartLine) error
	DeleteOneCartLine(executor SQLExecutor, ticketID, serviceID int64) error
	CountCartLines(executor SQLExecutor, ticketID int64) (int, error)
	GetCartLines(ticketID int64) ([]models.CartLine, error)
	GetCartLinesTx(executor SQLExecutor, ticketID int64) ([]models.CartLine, error)
}

type ticketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new instance of TicketRepository.
func NewTicketRepository(db *sql.DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `t.id, t.ticket_number, t.customer_name, t.customer_phone, t.status,
	t.priority, t.origin, t.barber_id, t.group_id, t.notes,
	t.created_at, t.called_at, t.started_at, t.completed_at`

func scanTicket(row scanner, withBarberName bool) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	dest := []interface{}{
		&ticket.ID, &ticket.TicketNumber, &ticket.CustomerName, &ticket.CustomerPhone, &ticket.Status,
		&ticket.Priority, &ticket.Origin, &ticket.BarberID, &ticket.GroupID, &ticket.Notes,
		&ticket.CreatedAt, &ticket.CalledAt, &ticket.StartedAt, &ticket.CompletedAt,
	}
	if withBarberName {
		dest = append(dest, &ticket.BarberName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) CreateTicket(executor SQLExecutor, ticket *models.Ticket) (int64, error) {
	query := `INSERT INTO tickets (ticket_number, customer_name, customer_phone, status, priority, origin, barber_id, group_id, notes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		ticket.TicketNumber, ticket.CustomerName, ticket.CustomerPhone,
		ticket.Status, ticket.Priority, ticket.Origin,
		ticket.BarberID, ticket.GroupID, ticket.Notes, ticket.CreatedAt,
	).Scan(&ticket.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating ticket: %v", ErrDatabaseError, err)
	}
	return ticket.ID, nil
}

// NextTicketNumber allocates the next number in the per-day sequence. The
// upsert takes a row lock on the day's sequence row, so concurrent joins
// each get a distinct number.
func (r *ticketRepository) NextTicketNumber(executor SQLExecutor, day time.Time) (int64, error) {
	var number int64
	query := `INSERT INTO ticket_sequences (seq_date, next_number)
	          VALUES ($1, 2)
	          ON CONFLICT (seq_date)
	          DO UPDATE SET next_number = ticket_sequences.next_number + 1
	          RETURNING next_number - 1`
	if err := executor.QueryRow(query, day.Format("2006-01-02")).Scan(&number); err != nil {
		return 0, fmt.Errorf("%w: allocating ticket number: %v", ErrDatabaseError, err)
	}
	return number, nil
}

func (r *ticketRepository) GetTicketByID(ticketID int64) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `, b.display_name
	          FROM tickets t
	          LEFT JOIN barbers b ON b.id = t.barber_id
	          WHERE t.id = $1`
	ticket, err := scanTicket(r.db.QueryRow(query, ticketID), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting ticket by ID %d: %v", ErrDatabaseError, ticketID, err)
	}

	lines, err := r.GetCartLines(ticketID)
	if err != nil {
		return nil, err
	}
	ticket.CartLines = lines
	return ticket, nil
}

func (r *ticketRepository) GetTicketStatus(executor SQLExecutor, ticketID int64) (string, error) {
	var status string
	err := executor.QueryRow(`SELECT status FROM tickets WHERE id = $1`, ticketID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: getting status for ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	return status, nil
}

// LockTicket reads the ticket FOR UPDATE so cart edits and transfers hold the
// row until the surrounding transaction commits.
func (r *ticketRepository) LockTicket(executor SQLExecutor, ticketID int64) (*models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
	          FROM tickets t
	          WHERE t.id = $1
	          FOR UPDATE`
	ticket, err := scanTicket(executor.QueryRow(query, ticketID), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: locking ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	return ticket, nil
}

func (r *ticketRepository) listTickets(query string, args ...interface{}) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying tickets: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		ticket, err := scanTicket(rows, true)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning ticket: %v", ErrDatabaseError, err)
		}
		tickets = append(tickets, *ticket)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating ticket rows: %v", ErrDatabaseError, err)
	}
	return tickets, nil
}

func (r *ticketRepository) ListTicketsByStatus(statuses []string) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + `, b.display_name
	          FROM tickets t
	          LEFT JOIN barbers b ON b.id = t.barber_id
	          WHERE t.status = ANY($1)
	          ORDER BY CASE t.priority WHEN 'preferencial' THEN 0 ELSE 1 END, t.created_at ASC`
	return r.listTickets(query, pq.Array(statuses))
}

// ListWaitingTickets returns the waiting queue in service order: preferencial
// tickets first, then arrival order within each tier.
func (r *ticketRepository) ListWaitingTickets() ([]models.Ticket, error) {
	return r.ListTicketsByStatus([]string{models.StatusWaiting})
}

func (r *ticketRepository) StaleCalledTickets(cutoff time.Time) ([]int64, error) {
	ids := []int64{}
	rows, err := r.db.Query(
		`SELECT id FROM tickets WHERE status = 'called' AND called_at < $1 ORDER BY called_at ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: querying stale called tickets: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning stale ticket ID: %v", ErrDatabaseError, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating stale ticket rows: %v", ErrDatabaseError, err)
	}
	return ids, nil
}

func (r *ticketRepository) CountActiveTickets(executor SQLExecutor) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM tickets WHERE status IN ('waiting', 'called')`
	if err := executor.QueryRow(query).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting active tickets: %v", ErrDatabaseError, err)
	}
	return count, nil
}

// HasActiveTicketForPhone reports whether the phone already holds a
// non-terminal ticket. Group joins share the lead customer's phone, so
// companions pass their own group ID to keep the check from tripping on
// tickets created earlier in the same group.
func (r *ticketRepository) HasActiveTicketForPhone(executor SQLExecutor, phone string, excludeGroupID *string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
	            SELECT 1 FROM tickets
	            WHERE customer_phone = $1 AND status IN ('waiting', 'called', 'in_progress')
	              AND ($2::text IS NULL OR group_id IS DISTINCT FROM $2::text)
	          )`
	if err := executor.QueryRow(query, phone, excludeGroupID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking active ticket for phone: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

// AvgServiceDurationSeconds averages started->completed over the most recent
// completed tickets. Returns 0 when there is no history yet.
func (r *ticketRepository) AvgServiceDurationSeconds(sample int) (float64, error) {
	var avg sql.NullFloat64
	query := `SELECT AVG(EXTRACT(EPOCH FROM (completed_at - started_at)))
	          FROM (
	            SELECT started_at, completed_at FROM tickets
	            WHERE status = 'completed' AND started_at IS NOT NULL AND completed_at IS NOT NULL
	            ORDER BY completed_at DESC
	            LIMIT $1
	          ) recent`
	if err := r.db.QueryRow(query, sample).Scan(&avg); err != nil {
		return 0, fmt.Errorf("%w: averaging service duration: %v", ErrDatabaseError, err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// transition runs one guarded status update. fromStatuses is the set of
// statuses the guard accepts; a miss is classified by re-reading the row.
func (r *ticketRepository) transition(executor SQLExecutor, ticketID int64, fromStatuses []string, query string, args ...interface{}) error {
	result, err := executor.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("%w: transitioning ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	if rowsAffected == 1 {
		return nil
	}

	current, err := r.GetTicketStatus(executor, ticketID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: ticket ID %d is %q, wanted one of %v", ErrStaleStatus, ticketID, current, fromStatuses)
}

func (r *ticketRepository) MarkCalled(executor SQLExecutor, ticketID, barberID int64, at time.Time) error {
	query := `UPDATE tickets
	          SET status = 'called', barber_id = $1, called_at = $2
	          WHERE id = $3 AND status = 'waiting'`
	return r.transition(executor, ticketID, []string{models.StatusWaiting}, query, barberID, at, ticketID)
}

// MarkStarted flips the ticket to in_progress and binds it to the barber who
// picked up the cut, replacing whoever it was assigned to at call time.
func (r *ticketRepository) MarkStarted(executor SQLExecutor, ticketID, barberID int64, at time.Time) error {
	query := `UPDATE tickets
	          SET status = 'in_progress', barber_id = $1, started_at = $2
	          WHERE id = $3 AND status = 'called'`
	return r.transition(executor, ticketID, []string{models.StatusCalled}, query, barberID, at, ticketID)
}

func (r *ticketRepository) MarkCompleted(executor SQLExecutor, ticketID int64, at time.Time) error {
	query := `UPDATE tickets
	          SET status = 'completed', completed_at = $1
	          WHERE id = $2 AND status = 'in_progress'`
	return r.transition(executor, ticketID, []string{models.StatusInProgress}, query, at, ticketID)
}

func (r *ticketRepository) MarkNoShow(executor SQLExecutor, ticketID int64) error {
	query := `UPDATE tickets
	          SET status = 'no_show'
	          WHERE id = $1 AND status = 'called'`
	return r.transition(executor, ticketID, []string{models.StatusCalled}, query, ticketID)
}

// MarkRemoved accepts any non-terminal status: customers can walk out
// mid-cut and staff can clear an abandoned chair.
func (r *ticketRepository) MarkRemoved(executor SQLExecutor, ticketID int64) error {
	query := `UPDATE tickets
	          SET status = 'removed'
	          WHERE id = $1 AND status IN ('waiting', 'called', 'in_progress')`
	return r.transition(executor, ticketID,
		[]string{models.StatusWaiting, models.StatusCalled, models.StatusInProgress}, query, ticketID)
}

// UpdateTicketBarber reassigns a ticket that has not started yet. Once the
// cut is in progress the assignment only changes through completion.
func (r *ticketRepository) UpdateTicketBarber(executor SQLExecutor, ticketID int64, barberID int64) error {
	query := `UPDATE tickets
	          SET barber_id = $1
	          WHERE id = $2 AND status IN ('waiting', 'called')`
	return r.transition(executor, ticketID,
		[]string{models.StatusWaiting, models.StatusCalled}, query, barberID, ticketID)
}

func (r *ticketRepository) InsertCartLine(executor SQLExecutor, line *models.CartLine) error {
	query := `INSERT INTO cart_lines (ticket_id, service_id, service_name, price, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	if line.CreatedAt.IsZero() {
		line.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		line.TicketID, line.ServiceID, line.ServiceName, line.Price, line.CreatedAt,
	).Scan(&line.ID)
	if err != nil {
		return fmt.Errorf("%w: inserting cart line for ticket ID %d: %v", ErrDatabaseError, line.TicketID, err)
	}
	return nil
}

// DeleteOneCartLine removes a single line for the service even when the cart
// holds duplicates of it.
func (r *ticketRepository) DeleteOneCartLine(executor SQLExecutor, ticketID, serviceID int64) error {
	query := `DELETE FROM cart_lines
	          WHERE id = (
	            SELECT id FROM cart_lines
	            WHERE ticket_id = $1 AND service_id = $2
	            ORDER BY id DESC
	            LIMIT 1
	          )`
	result, err := executor.Exec(query, ticketID, serviceID)
	if err != nil {
		return fmt.Errorf("%w: deleting cart line for ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for cart line delete: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) CountCartLines(executor SQLExecutor, ticketID int64) (int, error) {
	var count int
	if err := executor.QueryRow(`SELECT COUNT(*) FROM cart_lines WHERE ticket_id = $1`, ticketID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting cart lines for ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	return count, nil
}

func (r *ticketRepository) GetCartLines(ticketID int64) ([]models.CartLine, error) {
	return r.GetCartLinesTx(r.db, ticketID)
}

func (r *ticketRepository) GetCartLinesTx(executor SQLExecutor, ticketID int64) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	query := `SELECT id, ticket_id, service_id, service_name, price, created_at
	          FROM cart_lines
	          WHERE ticket_id = $1
	          ORDER BY id ASC`
	rows, err := executor.Query(query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying cart lines for ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.ID, &line.TicketID, &line.ServiceID, &line.ServiceName, &line.Price, &line.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning cart line: %v", ErrDatabaseError, err)
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating cart line rows: %v", ErrDatabaseError, err)
	}
	return lines, nil
}
