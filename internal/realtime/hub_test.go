package realtime

import "testing"

func TestHubPublishFanOut(t *testing.T) {
	hub := NewHub()

	first, cancelFirst := hub.Subscribe()
	second, cancelSecond := hub.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	if hub.SubscriberCount() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", hub.SubscriberCount())
	}

	hub.Publish("ticket.created")

	if got := <-first; got != "ticket.created" {
		t.Fatalf("first subscriber got %q", got)
	}
	if got := <-second; got != "ticket.created" {
		t.Fatalf("second subscriber got %q", got)
	}
}

func TestHubCancelRemovesSubscriber(t *testing.T) {
	hub := NewHub()

	events, cancel := hub.Subscribe()
	cancel()
	cancel()

	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", hub.SubscriberCount())
	}
	if _, ok := <-events; ok {
		t.Fatal("expected channel closed after cancel")
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := NewHub()

	_, cancel := hub.Subscribe()
	defer cancel()

	// Fill the 16-slot buffer without draining; the next publish drops it.
	for i := 0; i < 17; i++ {
		hub.Publish("event")
	}

	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected slow subscriber dropped, got %d", hub.SubscriberCount())
	}
}
