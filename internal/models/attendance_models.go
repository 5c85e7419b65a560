package models

import "time"

// AttendanceRecord is the financial/audit record produced exactly once when a
// ticket completes. PriceCharged is what the customer actually paid (manual
// discount or surcharge included); the frozen items keep the original cart
// amounts regardless. Never mutated, only administratively deleted.
type AttendanceRecord struct {
	ID            int64     `json:"id"`
	TicketID      int64     `json:"ticket_id" db:"ticket_id"`
	CustomerName  string    `json:"customer_name" db:"customer_name"`
	BarberID      int64     `json:"barber_id" db:"barber_id"`
	PriceCharged  float64   `json:"price_charged" db:"price_charged"`
	PaymentMethod *string   `json:"payment_method,omitempty" db:"payment_method"`
	CompletedAt   time.Time `json:"completed_at" db:"completed_at"`

	Items      []AttendanceItem `json:"items,omitempty"`
	BarberName *string          `json:"barber_name,omitempty"`
}

// AttendanceItem is a frozen copy of one cart line at completion time.
type AttendanceItem struct {
	ID           int64   `json:"id"`
	AttendanceID int64   `json:"attendance_id" db:"attendance_id"`
	ServiceID    int64   `json:"service_id" db:"service_id"`
	ServiceName  string  `json:"service_name" db:"service_name"`
	Price        float64 `json:"price" db:"price"`
}
