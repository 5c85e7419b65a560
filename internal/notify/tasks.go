package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names on the notifications queue.
const (
	TypeTicketCreated = "notify:ticket_created"
	TypeTicketCalled  = "notify:ticket_called"
	TypeTicketNoShow  = "notify:ticket_no_show"
	TypeBarberAlert   = "notify:barber_alert"
)

// Barber alert events.
const (
	BarberAlertJoined      = "joined"
	BarberAlertTransferred = "transferred"
)

// QueueName is the asynq queue all notification tasks land on.
const QueueName = "notifications"

// TicketPayload is the shared payload for ticket notifications.
type TicketPayload struct {
	TicketID      int64  `json:"ticket_id"`
	TicketNumber  string `json:"ticket_number"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	BarberName    string `json:"barber_name,omitempty"`
}

// BarberAlertPayload targets staff instead of the customer. A nil BarberID
// means the ticket has no assignment yet and every barber should hear about
// it.
type BarberAlertPayload struct {
	BarberID     *int64 `json:"barber_id"`
	TicketID     int64  `json:"ticket_id"`
	TicketNumber string `json:"ticket_number"`
	CustomerName string `json:"customer_name"`
	Event        string `json:"event"`
}

func newTicketTask(taskType string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, body,
		asynq.Queue(QueueName),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	), nil
}
