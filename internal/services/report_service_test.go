package services

import (
	"errors"
	"testing"
	"time"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"
)

// fakeAttendanceRepo mimics the report aggregates the SQL layer produces:
// commission is recomputed from the barber's current percentage on every
// read, exactly like the SUM(price_charged) * commission_percentage query.
type fakeAttendanceRepo struct {
	barbers map[int64]*models.Barber
	records []models.AttendanceRecord
	deleted []int64
}

func (f *fakeAttendanceRepo) CreateRecord(executor repositories.SQLExecutor, record *models.AttendanceRecord) (int64, error) {
	id := int64(len(f.records) + 1)
	record.ID = id
	f.records = append(f.records, *record)
	return id, nil
}

func (f *fakeAttendanceRepo) GetRecordByID(recordID int64) (*models.AttendanceRecord, error) {
	for i := range f.records {
		if f.records[i].ID == recordID {
			record := f.records[i]
			return &record, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAttendanceRepo) GetRecordByTicketID(ticketID int64) (*models.AttendanceRecord, error) {
	for i := range f.records {
		if f.records[i].TicketID == ticketID {
			record := f.records[i]
			return &record, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeAttendanceRepo) ListRecords(startDate, endDate string, barberID *int64) ([]models.AttendanceRecord, error) {
	var out []models.AttendanceRecord
	for _, r := range f.records {
		if barberID != nil && r.BarberID != *barberID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeAttendanceRepo) DeleteRecord(executor repositories.SQLExecutor, recordID int64) error {
	for i := range f.records {
		if f.records[i].ID == recordID {
			f.records = append(f.records[:i], f.records[i+1:]...)
			f.deleted = append(f.deleted, recordID)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeAttendanceRepo) DeleteRecordsInRange(executor repositories.SQLExecutor, startDate, endDate string, barberID *int64) (int64, error) {
	var kept []models.AttendanceRecord
	var n int64
	for _, r := range f.records {
		if barberID != nil && r.BarberID != *barberID {
			kept = append(kept, r)
			continue
		}
		f.deleted = append(f.deleted, r.ID)
		n++
	}
	f.records = kept
	return n, nil
}

func (f *fakeAttendanceRepo) EarningsByBarber(startDate, endDate string) ([]models.BarberEarnings, error) {
	byBarber := map[int64]*models.BarberEarnings{}
	var order []int64
	for _, r := range f.records {
		e, ok := byBarber[r.BarberID]
		if !ok {
			barber := f.barbers[r.BarberID]
			e = &models.BarberEarnings{
				BarberID:             barber.ID,
				BarberName:           barber.DisplayName,
				CommissionPercentage: barber.CommissionPercentage,
			}
			byBarber[r.BarberID] = e
			order = append(order, r.BarberID)
		}
		e.TicketsCompleted++
		e.TotalRevenue += r.PriceCharged
		e.Commission += r.PriceCharged * e.CommissionPercentage / 100
	}

	var out []models.BarberEarnings
	for _, id := range order {
		out = append(out, *byBarber[id])
	}
	return out, nil
}

func (f *fakeAttendanceRepo) PopularServices(startDate, endDate string, limit int) ([]models.PopularService, error) {
	return nil, nil
}

func (f *fakeAttendanceRepo) DailyRevenue(startDate, endDate string) ([]models.DailyRevenuePoint, error) {
	return nil, nil
}

type fakeBarberRepo struct {
	barbers map[int64]*models.Barber
}

func (f *fakeBarberRepo) CreateBarber(executor repositories.SQLExecutor, barber *models.Barber) (int64, error) {
	return 0, nil
}

func (f *fakeBarberRepo) GetBarberByID(barberID int64) (*models.Barber, error) {
	barber, ok := f.barbers[barberID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *barber
	return &copied, nil
}

func (f *fakeBarberRepo) GetBarberByUserID(userID int64) (*models.Barber, error) {
	return nil, repositories.ErrNotFound
}

func (f *fakeBarberRepo) GetBarbers(includeOffline bool) ([]models.Barber, error) {
	return nil, nil
}

func (f *fakeBarberRepo) UpdateBarber(executor repositories.SQLExecutor, barber *models.Barber) error {
	return nil
}

func (f *fakeBarberRepo) UpdateBarberStatus(executor repositories.SQLExecutor, barberID int64, status string) error {
	return nil
}

func (f *fakeBarberRepo) UpdateCommissionPercentage(executor repositories.SQLExecutor, barberID int64, percentage float64) error {
	barber, ok := f.barbers[barberID]
	if !ok {
		return repositories.ErrNotFound
	}
	barber.CommissionPercentage = percentage
	return nil
}

func (f *fakeBarberRepo) IsBarberAvailable(executor repositories.SQLExecutor, barberID int64) (bool, error) {
	return false, nil
}

func (f *fakeBarberRepo) DeleteBarber(executor repositories.SQLExecutor, barberID int64) error {
	return nil
}

func newReportFixture() (*fakeAttendanceRepo, *fakeBarberRepo, ReportService) {
	barbers := map[int64]*models.Barber{
		1: {ID: 1, DisplayName: "Carlos", CommissionPercentage: 40},
		2: {ID: 2, DisplayName: "Miguel", CommissionPercentage: 50},
	}
	now := time.Now()
	attendRepo := &fakeAttendanceRepo{
		barbers: barbers,
		records: []models.AttendanceRecord{
			{ID: 1, TicketID: 101, BarberID: 1, PriceCharged: 100, CompletedAt: now},
			{ID: 2, TicketID: 102, BarberID: 1, PriceCharged: 50, CompletedAt: now},
			{ID: 3, TicketID: 103, BarberID: 2, PriceCharged: 80, CompletedAt: now},
		},
	}
	barberRepo := &fakeBarberRepo{barbers: barbers}
	return attendRepo, barberRepo, NewReportService(attendRepo, barberRepo, nil)
}

func TestFinancialSummary(t *testing.T) {
	_, _, svc := newReportFixture()

	summary, err := svc.FinancialSummary("2025-01-01", "2025-12-31")
	if err != nil {
		t.Fatalf("financial summary: %v", err)
	}

	if summary.TotalRevenue != 230 {
		t.Fatalf("expected total revenue 230, got %v", summary.TotalRevenue)
	}
	// Carlos: 150 * 40% = 60, Miguel: 80 * 50% = 40.
	if summary.TotalCommission != 100 {
		t.Fatalf("expected total commission 100, got %v", summary.TotalCommission)
	}
	if summary.ShopProfit != 130 {
		t.Fatalf("expected shop profit 130, got %v", summary.ShopProfit)
	}
	if summary.TicketsServed != 3 {
		t.Fatalf("expected 3 tickets served, got %d", summary.TicketsServed)
	}
	if len(summary.Barbers) != 2 {
		t.Fatalf("expected 2 barber rows, got %d", len(summary.Barbers))
	}
}

func TestBarberEarningsRecomputesOnRateChange(t *testing.T) {
	_, barberRepo, svc := newReportFixture()

	before, err := svc.BarberEarnings("2025-01-01", "2025-12-31", 1)
	if err != nil {
		t.Fatalf("barber earnings: %v", err)
	}
	if before.Commission != 60 {
		t.Fatalf("expected commission 60 at 40%%, got %v", before.Commission)
	}

	if err := barberRepo.UpdateCommissionPercentage(nil, 1, 60); err != nil {
		t.Fatalf("update commission: %v", err)
	}

	after, err := svc.BarberEarnings("2025-01-01", "2025-12-31", 1)
	if err != nil {
		t.Fatalf("barber earnings after rate change: %v", err)
	}
	if after.Commission != 90 {
		t.Fatalf("expected commission 90 at 60%%, got %v", after.Commission)
	}
	if after.TotalRevenue != before.TotalRevenue {
		t.Fatalf("revenue changed with the rate: %v vs %v", after.TotalRevenue, before.TotalRevenue)
	}
}

func TestBarberEarningsZeroRow(t *testing.T) {
	attendRepo, _, svc := newReportFixture()
	attendRepo.records = nil

	earnings, err := svc.BarberEarnings("2025-01-01", "2025-12-31", 2)
	if err != nil {
		t.Fatalf("barber earnings: %v", err)
	}
	if earnings.BarberID != 2 || earnings.BarberName != "Miguel" {
		t.Fatalf("unexpected barber row: %+v", earnings)
	}
	if earnings.TicketsCompleted != 0 || earnings.TotalRevenue != 0 || earnings.Commission != 0 {
		t.Fatalf("expected zero totals, got %+v", earnings)
	}
}

func TestBarberEarningsUnknownBarber(t *testing.T) {
	_, _, svc := newReportFixture()

	if _, err := svc.BarberEarnings("", "", 99); !errors.Is(err, ErrBarberNotFound) {
		t.Fatalf("expected ErrBarberNotFound, got %v", err)
	}
}

func TestNormalizeRange(t *testing.T) {
	start, end, err := normalizeRange("2025-03-01", "2025-03-10")
	if err != nil {
		t.Fatalf("valid range rejected: %v", err)
	}
	if start != "2025-03-01" || end != "2025-03-10" {
		t.Fatalf("range rewritten: %s..%s", start, end)
	}

	start, end, err = normalizeRange("", "")
	if err != nil {
		t.Fatalf("default range rejected: %v", err)
	}
	today := time.Now().Format("2006-01-02")
	if end != today {
		t.Fatalf("expected default end %s, got %s", today, end)
	}
	if start != time.Now().AddDate(0, 0, -30).Format("2006-01-02") {
		t.Fatalf("unexpected default start %s", start)
	}

	for _, tt := range []struct{ start, end string }{
		{"03-01-2025", "2025-03-10"},
		{"2025-03-01", "next week"},
		{"2025-03-10", "2025-03-01"},
	} {
		if _, _, err := normalizeRange(tt.start, tt.end); !errors.Is(err, ErrValidation) {
			t.Fatalf("normalizeRange(%q, %q) expected ErrValidation, got %v", tt.start, tt.end, err)
		}
	}
}

func TestDeleteAttendance(t *testing.T) {
	attendRepo, _, svc := newReportFixture()

	if err := svc.DeleteAttendance(2); err != nil {
		t.Fatalf("delete attendance: %v", err)
	}
	if len(attendRepo.deleted) != 1 || attendRepo.deleted[0] != 2 {
		t.Fatalf("expected record 2 deleted, got %v", attendRepo.deleted)
	}
	if err := svc.DeleteAttendance(2); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for missing record, got %v", err)
	}
}

func TestDeleteAttendanceRange(t *testing.T) {
	attendRepo, _, svc := newReportFixture()

	// A bulk delete never assumes a default window.
	if _, err := svc.DeleteAttendanceRange("", "2025-12-31", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation without start_date, got %v", err)
	}
	if _, err := svc.DeleteAttendanceRange("2025-01-01", "", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation without end_date, got %v", err)
	}
	if len(attendRepo.deleted) != 0 {
		t.Fatalf("expected nothing deleted yet, got %v", attendRepo.deleted)
	}

	barberID := int64(1)
	deleted, err := svc.DeleteAttendanceRange("2025-01-01", "2025-12-31", &barberID)
	if err != nil {
		t.Fatalf("delete range for barber: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 records deleted for barber 1, got %d", deleted)
	}

	deleted, err = svc.DeleteAttendanceRange("2025-01-01", "2025-12-31", nil)
	if err != nil {
		t.Fatalf("delete range: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected the remaining record deleted, got %d", deleted)
	}
	if len(attendRepo.records) != 0 {
		t.Fatalf("expected empty store, got %d records", len(attendRepo.records))
	}
}
