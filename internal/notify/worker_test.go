package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
)

type captureSender struct {
	recipient string
	message   string
}

func (c *captureSender) Send(_ context.Context, recipient, message string) error {
	c.recipient = recipient
	c.message = message
	return nil
}

func TestHandleTicketCalledMessage(t *testing.T) {
	sender := &captureSender{}
	w := &Worker{sender: sender}

	task, err := newTicketTask(TypeTicketCalled, TicketPayload{
		TicketID:      7,
		TicketNumber:  "P007",
		CustomerName:  "Joao",
		CustomerPhone: "11999990000",
		BarberName:    "Carlos",
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	if err := w.handleTicketCalled(context.Background(), task); err != nil {
		t.Fatalf("handle task: %v", err)
	}
	if sender.recipient != "11999990000" {
		t.Fatalf("unexpected recipient: %s", sender.recipient)
	}
	if !strings.Contains(sender.message, "P007") || !strings.Contains(sender.message, "Carlos") {
		t.Fatalf("unexpected message: %s", sender.message)
	}
}

func TestHandleTicketCalledWithoutBarber(t *testing.T) {
	sender := &captureSender{}
	w := &Worker{sender: sender}

	task, err := newTicketTask(TypeTicketCalled, TicketPayload{
		TicketNumber:  "N012",
		CustomerPhone: "11999990000",
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	if err := w.handleTicketCalled(context.Background(), task); err != nil {
		t.Fatalf("handle task: %v", err)
	}
	if strings.Contains(sender.message, "chair") {
		t.Fatalf("message names a chair with no barber assigned: %s", sender.message)
	}
}

func TestHandleBarberAlertTargetsAssignedBarber(t *testing.T) {
	sender := &captureSender{}
	w := &Worker{sender: sender}

	barberID := int64(7)
	task, err := newTicketTask(TypeBarberAlert, BarberAlertPayload{
		BarberID:     &barberID,
		TicketID:     42,
		TicketNumber: "N042",
		CustomerName: "Joao",
		Event:        BarberAlertTransferred,
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	if err := w.handleBarberAlert(context.Background(), task); err != nil {
		t.Fatalf("handle task: %v", err)
	}
	if sender.recipient != "barber:7" {
		t.Fatalf("unexpected recipient: %s", sender.recipient)
	}
	if !strings.Contains(sender.message, "N042") || !strings.Contains(sender.message, "transferred") {
		t.Fatalf("unexpected message: %s", sender.message)
	}
}

func TestHandleBarberAlertFansOutWhenUnassigned(t *testing.T) {
	sender := &captureSender{}
	w := &Worker{sender: sender}

	task, err := newTicketTask(TypeBarberAlert, BarberAlertPayload{
		TicketID:     43,
		TicketNumber: "P003",
		CustomerName: "Dona Ana",
		Event:        BarberAlertJoined,
	})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}

	if err := w.handleBarberAlert(context.Background(), task); err != nil {
		t.Fatalf("handle task: %v", err)
	}
	if sender.recipient != "barbers:all" {
		t.Fatalf("expected fan-out recipient, got %s", sender.recipient)
	}
	if !strings.Contains(sender.message, "P003") {
		t.Fatalf("unexpected message: %s", sender.message)
	}
}

func TestHandleTicketCreatedBadPayload(t *testing.T) {
	w := &Worker{sender: &captureSender{}}
	task := asynq.NewTask(TypeTicketCreated, []byte("not json"))

	if err := w.handleTicketCreated(context.Background(), task); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
