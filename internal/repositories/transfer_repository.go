package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"barbershop_backend/internal/models"
)

// TransferRepository defines the interface for transfer audit rows.
type TransferRepository interface {
	CreateTransfer(executor SQLExecutor, transfer *models.Transfer) (int64, error)
	ListTransfersByTicket(ticketID int64) ([]models.Transfer, error)
}

type transferRepository struct {
	db *sql.DB
}

// NewTransferRepository creates a new instance of TransferRepository.
func NewTransferRepository(db *sql.DB) TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) CreateTransfer(executor SQLExecutor, transfer *models.Transfer) (int64, error) {
	query := `INSERT INTO transfers (ticket_id, from_barber_id, to_barber_id, reason, created_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	if transfer.CreatedAt.IsZero() {
		transfer.CreatedAt = time.Now()
	}
	err := executor.QueryRow(query,
		transfer.TicketID, transfer.FromBarberID, transfer.ToBarberID, transfer.Reason, transfer.CreatedAt,
	).Scan(&transfer.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating transfer for ticket ID %d: %v", ErrDatabaseError, transfer.TicketID, err)
	}
	return transfer.ID, nil
}

func (r *transferRepository) ListTransfersByTicket(ticketID int64) ([]models.Transfer, error) {
	transfers := []models.Transfer{}
	query := `SELECT id, ticket_id, from_barber_id, to_barber_id, reason, created_at
	          FROM transfers
	          WHERE ticket_id = $1
	          ORDER BY created_at ASC`
	rows, err := r.db.Query(query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying transfers for ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(&t.ID, &t.TicketID, &t.FromBarberID, &t.ToBarberID, &t.Reason, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning transfer: %v", ErrDatabaseError, err)
		}
		transfers = append(transfers, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating transfer rows: %v", ErrDatabaseError, err)
	}
	return transfers, nil
}
