package models

import "time"

// QueueSettings is the singleton gate every join checks. Times are "HH:MM"
// wall-clock strings; a closing time earlier than the opening time means the
// window crosses midnight.
type QueueSettings struct {
	ID           int64     `json:"id"`
	Active       bool      `json:"active" db:"active"`
	OpeningTime  string    `json:"opening_time" db:"opening_time"`
	ClosingTime  string    `json:"closing_time" db:"closing_time"`
	MaxQueueSize int       `json:"max_queue_size" db:"max_queue_size"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
