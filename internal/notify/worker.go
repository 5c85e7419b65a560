package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"barbershop_backend/pkg/utils"

	"github.com/hibiken/asynq"
)

// Sender delivers one message to a recipient: a customer phone number or a
// staff tag like "barber:7". The default implementation only logs; an SMS or
// push gateway slots in behind this interface.
type Sender interface {
	Send(ctx context.Context, recipient, message string) error
}

// LogSender writes the message to the application log instead of a gateway.
type LogSender struct{}

func (LogSender) Send(_ context.Context, recipient, message string) error {
	utils.LogInfo("notification", map[string]interface{}{
		"recipient": recipient,
		"message":   message,
	})
	return nil
}

// Worker consumes notification tasks and hands them to the Sender.
type Worker struct {
	server *asynq.Server
	sender Sender
}

// NewWorker builds the asynq server and handler mux for the notifications
// queue.
func NewWorker(redisAddr string, sender Sender) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 5,
			Queues:      map[string]int{QueueName: 1},
		},
	)
	return &Worker{server: server, sender: sender}
}

// Start runs the worker in the background. It returns immediately; errors
// from the server shut the process down via log.Fatal semantics upstream.
func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeTicketCreated, w.handleTicketCreated)
	mux.HandleFunc(TypeTicketCalled, w.handleTicketCalled)
	mux.HandleFunc(TypeTicketNoShow, w.handleTicketNoShow)
	mux.HandleFunc(TypeBarberAlert, w.handleBarberAlert)
	return w.server.Start(mux)
}

// Shutdown waits for in-flight tasks to finish.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func decodePayload(t *asynq.Task) (TicketPayload, error) {
	var payload TicketPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("unmarshaling %s payload: %w", t.Type(), err)
	}
	return payload, nil
}

func (w *Worker) handleTicketCreated(ctx context.Context, t *asynq.Task) error {
	payload, err := decodePayload(t)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("Hi %s, you are in the queue. Your ticket is %s.",
		payload.CustomerName, payload.TicketNumber)
	return w.sender.Send(ctx, payload.CustomerPhone, message)
}

func (w *Worker) handleTicketCalled(ctx context.Context, t *asynq.Task) error {
	payload, err := decodePayload(t)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("Ticket %s: it's your turn!", payload.TicketNumber)
	if payload.BarberName != "" {
		message = fmt.Sprintf("Ticket %s: it's your turn! Head to %s's chair.",
			payload.TicketNumber, payload.BarberName)
	}
	return w.sender.Send(ctx, payload.CustomerPhone, message)
}

func (w *Worker) handleTicketNoShow(ctx context.Context, t *asynq.Task) error {
	payload, err := decodePayload(t)
	if err != nil {
		return err
	}
	message := fmt.Sprintf("Ticket %s was marked as a no-show. Join again any time.",
		payload.TicketNumber)
	return w.sender.Send(ctx, payload.CustomerPhone, message)
}

// handleBarberAlert tells the assigned barber about a ticket that landed on
// their chair. Unassigned tickets go to every barber.
func (w *Worker) handleBarberAlert(ctx context.Context, t *asynq.Task) error {
	var payload BarberAlertPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshaling %s payload: %w", t.Type(), err)
	}

	recipient := "barbers:all"
	if payload.BarberID != nil {
		recipient = fmt.Sprintf("barber:%d", *payload.BarberID)
	}

	var message string
	switch payload.Event {
	case BarberAlertTransferred:
		message = fmt.Sprintf("Ticket %s (%s) was transferred to your chair.",
			payload.TicketNumber, payload.CustomerName)
	default:
		message = fmt.Sprintf("New customer in the queue: %s (ticket %s).",
			payload.CustomerName, payload.TicketNumber)
	}
	return w.sender.Send(ctx, recipient, message)
}
