package services

import (
	"fmt"
	"math"
	"time"

	"barbershop_backend/internal/models"
)

// MaxGroupSize caps one group join: the lead customer plus up to five
// companions.
const MaxGroupSize = 6

// defaultServiceMinutes is the wait estimate used until enough completed
// tickets exist to compute a rolling average.
const defaultServiceMinutes = 30

// durationSampleSize is how many recent completions feed the rolling average.
const durationSampleSize = 50

// allowedTransitions is the full ticket status machine. Anything not listed
// here is rejected before touching the database.
var allowedTransitions = map[string][]string{
	models.StatusWaiting:    {models.StatusCalled, models.StatusRemoved},
	models.StatusCalled:     {models.StatusInProgress, models.StatusNoShow, models.StatusRemoved},
	models.StatusInProgress: {models.StatusCompleted, models.StatusRemoved},
}

// CanTransition reports whether a ticket may move from one status to another.
func CanTransition(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// FormatTicketNumber renders the human code printed on displays. Preferencial
// tickets get the P prefix so staff can spot them at a glance.
func FormatTicketNumber(priority string, number int64) string {
	prefix := "N"
	if priority == models.PriorityPreferencial {
		prefix = "P"
	}
	return fmt.Sprintf("%s%03d", prefix, number)
}

// parseClock parses an "HH:MM" wall-clock string into minutes past midnight.
func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%w: clock value %q must be HH:MM", ErrValidation, value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidateClock checks an "HH:MM" settings value.
func ValidateClock(value string) error {
	_, err := parseClock(value)
	return err
}

// WithinOpenHours reports whether now falls inside the opening window. A
// closing time at or before the opening time means the window crosses
// midnight, so 20:00-02:00 admits 23:30 and 01:00 but not 12:00.
func WithinOpenHours(now time.Time, openingTime, closingTime string) (bool, error) {
	open, err := parseClock(openingTime)
	if err != nil {
		return false, err
	}
	closeAt, err := parseClock(closingTime)
	if err != nil {
		return false, err
	}

	minute := now.Hour()*60 + now.Minute()
	if open < closeAt {
		return minute >= open && minute < closeAt, nil
	}
	return minute >= open || minute < closeAt, nil
}

// EstimateWaitMinutes converts a queue position into a wait estimate using
// the rolling average service duration. Position 1 means next up, so it waits
// zero full services.
func EstimateWaitMinutes(position int, avgServiceSeconds float64) int {
	if position <= 1 {
		return 0
	}
	perTicket := avgServiceSeconds / 60
	if perTicket <= 0 {
		perTicket = defaultServiceMinutes
	}
	return int(math.Round(float64(position-1) * perTicket))
}

// positionOf finds the 1-based rank of a ticket in the already-ordered
// waiting list, or 0 if it is not waiting.
func positionOf(waiting []models.Ticket, ticketID int64) int {
	for i := range waiting {
		if waiting[i].ID == ticketID {
			return i + 1
		}
	}
	return 0
}

// CartTotal sums the frozen line prices.
func CartTotal(lines []models.CartLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Price
	}
	return total
}
