package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/repositories"
)

const popularServicesLimit = 10

// ReportService builds the read-side financial views from attendance
// records. Commission uses each barber's current percentage; changing a rate
// recomputes past reports too.
type ReportService interface {
	FinancialSummary(startDate, endDate string) (*models.FinancialSummary, error)
	BarberEarnings(startDate, endDate string, barberID int64) (*models.BarberEarnings, error)
	DailyRevenue(startDate, endDate string) ([]models.DailyRevenuePoint, error)
	ListAttendance(startDate, endDate string, barberID *int64) ([]models.AttendanceRecord, error)
	GetAttendance(recordID int64) (*models.AttendanceRecord, error)
	DeleteAttendance(recordID int64) error
	DeleteAttendanceRange(startDate, endDate string, barberID *int64) (int64, error)
}

type reportService struct {
	attendRepo repositories.AttendanceRepository
	barberRepo repositories.BarberRepository
	db         *sql.DB
}

// NewReportService creates a new instance of ReportService.
func NewReportService(ar repositories.AttendanceRepository, br repositories.BarberRepository, db *sql.DB) ReportService {
	return &reportService{attendRepo: ar, barberRepo: br, db: db}
}

// normalizeRange validates the dates and fills defaults: missing start means
// the last 30 days, missing end means today.
func normalizeRange(startDate, endDate string) (string, string, error) {
	if endDate == "" {
		endDate = time.Now().Format("2006-01-02")
	}
	if startDate == "" {
		startDate = time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	}

	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return "", "", fmt.Errorf("%w: start_date %q must be YYYY-MM-DD", ErrValidation, startDate)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return "", "", fmt.Errorf("%w: end_date %q must be YYYY-MM-DD", ErrValidation, endDate)
	}
	if end.Before(start) {
		return "", "", fmt.Errorf("%w: end_date %s is before start_date %s", ErrValidation, endDate, startDate)
	}
	return startDate, endDate, nil
}

func (s *reportService) FinancialSummary(startDate, endDate string) (*models.FinancialSummary, error) {
	startDate, endDate, err := normalizeRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	earnings, err := s.attendRepo.EarningsByBarber(startDate, endDate)
	if err != nil {
		return nil, err
	}
	popular, err := s.attendRepo.PopularServices(startDate, endDate, popularServicesLimit)
	if err != nil {
		return nil, err
	}

	summary := &models.FinancialSummary{
		StartDate:       startDate,
		EndDate:         endDate,
		Barbers:         earnings,
		PopularServices: popular,
	}
	for _, e := range earnings {
		summary.TotalRevenue += e.TotalRevenue
		summary.TotalCommission += e.Commission
		summary.TicketsServed += e.TicketsCompleted
	}
	summary.ShopProfit = summary.TotalRevenue - summary.TotalCommission
	return summary, nil
}

func (s *reportService) BarberEarnings(startDate, endDate string, barberID int64) (*models.BarberEarnings, error) {
	startDate, endDate, err := normalizeRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	barber, err := s.barberRepo.GetBarberByID(barberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBarberNotFound
		}
		return nil, err
	}

	earnings, err := s.attendRepo.EarningsByBarber(startDate, endDate)
	if err != nil {
		return nil, err
	}
	for _, e := range earnings {
		if e.BarberID == barberID {
			return &e, nil
		}
	}
	// No completions in range: return a zero row so the dashboard still
	// shows the barber.
	return &models.BarberEarnings{
		BarberID:             barber.ID,
		BarberName:           barber.DisplayName,
		CommissionPercentage: barber.CommissionPercentage,
	}, nil
}

func (s *reportService) DailyRevenue(startDate, endDate string) ([]models.DailyRevenuePoint, error) {
	startDate, endDate, err := normalizeRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.attendRepo.DailyRevenue(startDate, endDate)
}

func (s *reportService) ListAttendance(startDate, endDate string, barberID *int64) ([]models.AttendanceRecord, error) {
	startDate, endDate, err := normalizeRange(startDate, endDate)
	if err != nil {
		return nil, err
	}
	return s.attendRepo.ListRecords(startDate, endDate, barberID)
}

func (s *reportService) GetAttendance(recordID int64) (*models.AttendanceRecord, error) {
	record, err := s.attendRepo.GetRecordByID(recordID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return record, nil
}

// DeleteAttendance is an admin correction for records written by mistake.
// The underlying ticket stays completed.
func (s *reportService) DeleteAttendance(recordID int64) error {
	record, err := s.GetAttendance(recordID)
	if err != nil {
		return err
	}
	return s.attendRepo.DeleteRecord(s.db, record.ID)
}

// DeleteAttendanceRange wipes every record in the range, optionally for one
// barber. Both dates must be spelled out; a bulk delete never falls back to
// the default reporting window.
func (s *reportService) DeleteAttendanceRange(startDate, endDate string, barberID *int64) (int64, error) {
	if startDate == "" || endDate == "" {
		return 0, fmt.Errorf("%w: start_date and end_date are required for a bulk delete", ErrValidation)
	}
	startDate, endDate, err := normalizeRange(startDate, endDate)
	if err != nil {
		return 0, err
	}
	return s.attendRepo.DeleteRecordsInRange(s.db, startDate, endDate, barberID)
}
