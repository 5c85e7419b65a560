package models

import "time"

// Ticket is one customer's queue entry. Status moves through the machine
// waiting -> called -> in_progress -> completed, with side exits to no_show
// (from called) and removed (leave/delete from any non-terminal status).
type Ticket struct {
	ID            int64      `json:"id"`
	TicketNumber  string     `json:"ticket_number" db:"ticket_number"`
	CustomerName  string     `json:"customer_name" db:"customer_name"`
	CustomerPhone string     `json:"customer_phone" db:"customer_phone"`
	Status        string     `json:"status" db:"status"`
	Priority      string     `json:"priority" db:"priority"`
	Origin        string     `json:"origin" db:"origin"`
	BarberID      *int64     `json:"barber_id,omitempty" db:"barber_id"`
	GroupID       *string    `json:"group_id,omitempty" db:"group_id"`
	Notes         *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	CalledAt      *time.Time `json:"called_at,omitempty" db:"called_at"`
	StartedAt     *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	CartLines  []CartLine `json:"cart_lines,omitempty"`
	BarberName *string    `json:"barber_name,omitempty"`
}

// Ticket statuses.
const (
	StatusWaiting    = "waiting"
	StatusCalled     = "called"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusNoShow     = "no_show"
	StatusRemoved    = "removed"
)

// Priority tiers. Preferencial tickets rank above every normal ticket
// regardless of arrival order.
const (
	PriorityNormal       = "normal"
	PriorityPreferencial = "preferencial"
)

// Ticket origins.
const (
	OriginOnline = "online"
	OriginWalkin = "walkin"
)

// IsTerminal reports whether a ticket status admits no further transitions.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusNoShow, StatusRemoved:
		return true
	default:
		return false
	}
}

// CartLine is one service attached to a ticket. Name and price are frozen at
// attach time; later catalog edits do not touch existing lines.
type CartLine struct {
	ID          int64     `json:"id"`
	TicketID    int64     `json:"ticket_id" db:"ticket_id"`
	ServiceID   int64     `json:"service_id" db:"service_id"`
	ServiceName string    `json:"service_name" db:"service_name"`
	Price       float64   `json:"price" db:"price"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// QueuePosition is the public read model for one waiting ticket.
type QueuePosition struct {
	Ticket        Ticket `json:"ticket"`
	Position      int    `json:"position"`
	EstimatedWait int    `json:"estimated_wait_minutes"`
}
