package services

import (
	"testing"
	"time"

	"barbershop_backend/internal/models"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from  string
		to    string
		valid bool
	}{
		{models.StatusWaiting, models.StatusCalled, true},
		{models.StatusWaiting, models.StatusRemoved, true},
		{models.StatusWaiting, models.StatusInProgress, false},
		{models.StatusWaiting, models.StatusCompleted, false},
		{models.StatusCalled, models.StatusInProgress, true},
		{models.StatusCalled, models.StatusNoShow, true},
		{models.StatusCalled, models.StatusRemoved, true},
		{models.StatusCalled, models.StatusCompleted, false},
		{models.StatusCalled, models.StatusWaiting, false},
		{models.StatusInProgress, models.StatusCompleted, true},
		{models.StatusInProgress, models.StatusNoShow, false},
		{models.StatusInProgress, models.StatusRemoved, true},
		{models.StatusInProgress, models.StatusWaiting, false},
		{models.StatusCompleted, models.StatusWaiting, false},
		{models.StatusNoShow, models.StatusCalled, false},
		{models.StatusRemoved, models.StatusWaiting, false},
		{"unknown", models.StatusCalled, false},
	}

	for _, tt := range cases {
		if got := CanTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("CanTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestFormatTicketNumber(t *testing.T) {
	cases := []struct {
		priority string
		number   int64
		want     string
	}{
		{models.PriorityNormal, 1, "N001"},
		{models.PriorityNormal, 42, "N042"},
		{models.PriorityNormal, 1234, "N1234"},
		{models.PriorityPreferencial, 7, "P007"},
		{models.PriorityPreferencial, 100, "P100"},
	}

	for _, tt := range cases {
		if got := FormatTicketNumber(tt.priority, tt.number); got != tt.want {
			t.Fatalf("FormatTicketNumber(%q, %d)=%q, want %q", tt.priority, tt.number, got, tt.want)
		}
	}
}

func TestValidateClock(t *testing.T) {
	for _, valid := range []string{"00:00", "09:00", "23:59", "12:30"} {
		if err := ValidateClock(valid); err != nil {
			t.Fatalf("ValidateClock(%q) returned %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "9:0:0", "24:00", "12:60", "noon", "12.30"} {
		if err := ValidateClock(invalid); err == nil {
			t.Fatalf("ValidateClock(%q) accepted invalid value", invalid)
		}
	}
}

func TestWithinOpenHours(t *testing.T) {
	at := func(hour, minute int) time.Time {
		return time.Date(2025, 6, 15, hour, minute, 0, 0, time.UTC)
	}

	cases := []struct {
		name    string
		now     time.Time
		open    string
		closeAt string
		want    bool
	}{
		{"mid day open", at(12, 0), "09:00", "20:00", true},
		{"exactly at opening", at(9, 0), "09:00", "20:00", true},
		{"exactly at closing", at(20, 0), "09:00", "20:00", false},
		{"before opening", at(8, 59), "09:00", "20:00", false},
		{"after closing", at(21, 0), "09:00", "20:00", false},
		{"overnight late evening", at(23, 30), "20:00", "02:00", true},
		{"overnight after midnight", at(1, 0), "20:00", "02:00", true},
		{"overnight closed midday", at(12, 0), "20:00", "02:00", false},
		{"overnight at close", at(2, 0), "20:00", "02:00", false},
	}

	for _, tt := range cases {
		got, err := WithinOpenHours(tt.now, tt.open, tt.closeAt)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: WithinOpenHours=%v, want %v", tt.name, got, tt.want)
		}
	}

	if _, err := WithinOpenHours(at(12, 0), "bad", "20:00"); err == nil {
		t.Fatal("expected error for malformed opening time")
	}
}

func TestEstimateWaitMinutes(t *testing.T) {
	cases := []struct {
		position   int
		avgSeconds float64
		want       int
	}{
		{0, 1200, 0},
		{1, 1200, 0},
		{2, 1200, 20},
		{3, 1200, 40},
		{4, 900, 45},
		{2, 0, defaultServiceMinutes},
		{3, 0, 2 * defaultServiceMinutes},
		{2, 90, 2},
	}

	for _, tt := range cases {
		if got := EstimateWaitMinutes(tt.position, tt.avgSeconds); got != tt.want {
			t.Fatalf("EstimateWaitMinutes(%d, %v)=%d, want %d", tt.position, tt.avgSeconds, got, tt.want)
		}
	}
}

func TestPositionOf(t *testing.T) {
	waiting := []models.Ticket{{ID: 10}, {ID: 11}, {ID: 12}}

	if got := positionOf(waiting, 10); got != 1 {
		t.Fatalf("expected position 1, got %d", got)
	}
	if got := positionOf(waiting, 12); got != 3 {
		t.Fatalf("expected position 3, got %d", got)
	}
	if got := positionOf(waiting, 99); got != 0 {
		t.Fatalf("expected position 0 for absent ticket, got %d", got)
	}
	if got := positionOf(nil, 10); got != 0 {
		t.Fatalf("expected position 0 for empty queue, got %d", got)
	}
}

func TestCartTotal(t *testing.T) {
	lines := []models.CartLine{
		{Price: 50},
		{Price: 35.5},
		{Price: 14.5},
	}
	if got := CartTotal(lines); got != 100 {
		t.Fatalf("expected 100, got %v", got)
	}
	if got := CartTotal(nil); got != 0 {
		t.Fatalf("expected 0 for empty cart, got %v", got)
	}
}
