package models

import "time"

// QueueRequest is the lower-trust entry path for barbers without the
// direct-entry privilege. A request never enters the queue itself; approval
// converts it into a brand-new Ticket in the same transaction.
type QueueRequest struct {
	ID            int64      `json:"id"`
	CustomerName  string     `json:"customer_name" db:"customer_name"`
	CustomerPhone string     `json:"customer_phone" db:"customer_phone"`
	ServiceID     int64      `json:"service_id" db:"service_id"`
	BarberID      *int64     `json:"barber_id,omitempty" db:"barber_id"`
	RequestedBy   int64      `json:"requested_by" db:"requested_by"`
	Status        string     `json:"status" db:"status"`
	AdminNotes    *string    `json:"admin_notes,omitempty" db:"admin_notes"`
	ProcessedBy   *int64     `json:"processed_by,omitempty" db:"processed_by"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty" db:"processed_at"`
	TicketID      *int64     `json:"ticket_id,omitempty" db:"ticket_id"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`

	ServiceName   *string `json:"service_name,omitempty"`
	RequesterName *string `json:"requester_name,omitempty"`
}

// Queue request statuses. Single transition out of pending, then frozen.
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// Transfer records a barber reassignment for audit. Applying one mutates the
// ticket's barber field; the row itself is append-only.
type Transfer struct {
	ID           int64     `json:"id"`
	TicketID     int64     `json:"ticket_id" db:"ticket_id"`
	FromBarberID *int64    `json:"from_barber_id,omitempty" db:"from_barber_id"`
	ToBarberID   int64     `json:"to_barber_id" db:"to_barber_id"`
	Reason       *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
