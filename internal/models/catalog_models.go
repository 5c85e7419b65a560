package models

import "time"

// Service is a catalog entry a customer can put in a ticket cart. Cart lines
// snapshot name and price at attach time, so edits here never rewrite history;
// referenced services are deactivated, not deleted.
type Service struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name" db:"name"`
	Price           float64   `json:"price" db:"price"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	Active          bool      `json:"active" db:"active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Barber represents a chair in the shop. UserID is nil for shell barbers
// created before an account is linked. Status holds what the barber set
// (online/away/offline); "busy" is never stored. It is derived at read time
// from holding an in_progress ticket, so it cannot go stale.
type Barber struct {
	ID                   int64     `json:"id"`
	UserID               *int64    `json:"user_id,omitempty" db:"user_id"`
	DisplayName          string    `json:"display_name" db:"display_name"`
	Available            bool      `json:"available" db:"available"`
	Status               string    `json:"status" db:"status"`
	CommissionPercentage float64   `json:"commission_percentage" db:"commission_percentage"`
	DirectEntry          bool      `json:"direct_entry" db:"direct_entry"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// Barber status values. BarberStatusBusy is derived, never persisted.
const (
	BarberStatusOnline  = "online"
	BarberStatusAway    = "away"
	BarberStatusOffline = "offline"
	BarberStatusBusy    = "busy"
)
