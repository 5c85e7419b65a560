package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types written to the outbox and broadcast over the change feed.
const (
	EventTicketCreated    = "ticket.created"
	EventTicketCalled     = "ticket.called"
	EventTicketStarted    = "ticket.started"
	EventTicketCompleted  = "ticket.completed"
	EventTicketNoShow     = "ticket.no_show"
	EventTicketRemoved    = "ticket.removed"
	EventTicketTransfer   = "ticket.transferred"
	EventCartUpdated      = "ticket.cart_updated"
	EventRequestSubmitted = "request.submitted"
	EventRequestProcessed = "request.processed"
	EventSettingsUpdated  = "settings.updated"
)

// OutboxRepository appends domain events inside the transactions that produce
// them. Each insert also fires pg_notify on the queue_events channel, so the
// change feed listener wakes up as soon as the transaction commits.
type OutboxRepository interface {
	InsertEvent(executor SQLExecutor, eventType string, payload interface{}) (string, error)
	DeleteEventsBefore(cutoff time.Time) (int64, error)
}

type outboxRepository struct {
	db *sql.DB
}

// NewOutboxRepository creates a new instance of OutboxRepository.
func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

// NotifyChannel is the pg_notify channel the change feed listens on.
const NotifyChannel = "queue_events"

func (r *outboxRepository) InsertEvent(executor SQLExecutor, eventType string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling %s event payload: %v", ErrDatabaseError, eventType, err)
	}

	eventID := uuid.NewString()
	query := `INSERT INTO outbox_events (event_id, type, payload, created_at)
	          VALUES ($1, $2, $3, $4)`
	if _, err := executor.Exec(query, eventID, eventType, body, time.Now()); err != nil {
		return "", fmt.Errorf("%w: inserting %s event: %v", ErrDatabaseError, eventType, err)
	}

	envelope, err := json.Marshal(map[string]interface{}{
		"event_id": eventID,
		"type":     eventType,
		"payload":  json.RawMessage(body),
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshaling %s notify envelope: %v", ErrDatabaseError, eventType, err)
	}
	if _, err := executor.Exec(`SELECT pg_notify($1, $2)`, NotifyChannel, string(envelope)); err != nil {
		return "", fmt.Errorf("%w: notifying %s event: %v", ErrDatabaseError, eventType, err)
	}
	return eventID, nil
}

// DeleteEventsBefore trims old outbox rows; the scheduler runs it daily.
func (r *outboxRepository) DeleteEventsBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM outbox_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: trimming outbox events: %v", ErrDatabaseError, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for outbox trim: %v", ErrDatabaseError, err)
	}
	return deleted, nil
}
