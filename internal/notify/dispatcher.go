package notify

import (
	"fmt"

	"github.com/hibiken/asynq"
)

// Dispatcher enqueues customer notifications. Callers fire it after their
// transaction commits; failures are logged, never propagated into the
// business operation.
type Dispatcher interface {
	TicketCreated(payload TicketPayload) error
	TicketCalled(payload TicketPayload) error
	TicketNoShow(payload TicketPayload) error
	BarberAlert(payload BarberAlertPayload) error
}

type asynqDispatcher struct {
	client *asynq.Client
}

// NewDispatcher creates a Dispatcher backed by an asynq client.
func NewDispatcher(redisAddr string) Dispatcher {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	return &asynqDispatcher{client: client}
}

func (d *asynqDispatcher) enqueue(taskType string, payload interface{}) error {
	task, err := newTicketTask(taskType, payload)
	if err != nil {
		return err
	}
	if _, err := d.client.Enqueue(task); err != nil {
		return fmt.Errorf("enqueuing %s task: %w", taskType, err)
	}
	return nil
}

func (d *asynqDispatcher) TicketCreated(payload TicketPayload) error {
	return d.enqueue(TypeTicketCreated, payload)
}

func (d *asynqDispatcher) TicketCalled(payload TicketPayload) error {
	return d.enqueue(TypeTicketCalled, payload)
}

func (d *asynqDispatcher) TicketNoShow(payload TicketPayload) error {
	return d.enqueue(TypeTicketNoShow, payload)
}

func (d *asynqDispatcher) BarberAlert(payload BarberAlertPayload) error {
	return d.enqueue(TypeBarberAlert, payload)
}

// NopDispatcher drops every notification. Used when REDIS_ADDR is unset and
// in tests.
type NopDispatcher struct{}

func (NopDispatcher) TicketCreated(TicketPayload) error    { return nil }
func (NopDispatcher) TicketCalled(TicketPayload) error     { return nil }
func (NopDispatcher) TicketNoShow(TicketPayload) error     { return nil }
func (NopDispatcher) BarberAlert(BarberAlertPayload) error { return nil }
