package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"barbershop_backend/internal/models"

	"github.com/lib/pq"
)

// AttendanceRepository defines the interface for completed-ticket records and
// the aggregations the reports are built from.
type AttendanceRepository interface {
	CreateRecord(executor SQLExecutor, record *models.AttendanceRecord) (int64, error)
	GetRecordByID(recordID int64) (*models.AttendanceRecord, error)
	GetRecordByTicketID(ticketID int64) (*models.AttendanceRecord, error)
	ListRecords(startDate, endDate string, barberID *int64) ([]models.AttendanceRecord, error)
	DeleteRecord(executor SQLExecutor, recordID int64) error
	DeleteRecordsInRange(executor SQLExecutor, startDate, endDate string, barberID *int64) (int64, error)

	EarningsByBarber(startDate, endDate string) ([]models.BarberEarnings, error)
	PopularServices(startDate, endDate string, limit int) ([]models.PopularService, error)
	DailyRevenue(startDate, endDate string) ([]models.DailyRevenuePoint, error)
}

type attendanceRepository struct {
	db *sql.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sql.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) CreateRecord(executor SQLExecutor, record *models.AttendanceRecord) (int64, error) {
	query := `INSERT INTO attendance_records (ticket_id, customer_name, barber_id, price_charged, payment_method, completed_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	err := executor.QueryRow(query,
		record.TicketID, record.CustomerName, record.BarberID,
		record.PriceCharged, record.PaymentMethod, record.CompletedAt,
	).Scan(&record.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, fmt.Errorf("%w: attendance record for ticket ID %d already exists: %v", ErrDuplicateKey, record.TicketID, err)
		}
		return 0, fmt.Errorf("%w: creating attendance record: %v", ErrDatabaseError, err)
	}

	for i := range record.Items {
		item := &record.Items[i]
		item.AttendanceID = record.ID
		itemQuery := `INSERT INTO attendance_items (attendance_id, service_id, service_name, price)
		              VALUES ($1, $2, $3, $4)
		              RETURNING id`
		if err := executor.QueryRow(itemQuery, item.AttendanceID, item.ServiceID, item.ServiceName, item.Price).Scan(&item.ID); err != nil {
			return 0, fmt.Errorf("%w: creating attendance item: %v", ErrDatabaseError, err)
		}
	}
	return record.ID, nil
}

const attendanceColumns = `a.id, a.ticket_id, a.customer_name, a.barber_id, a.price_charged,
	a.payment_method, a.completed_at, b.display_name`

func scanAttendance(row scanner) (*models.AttendanceRecord, error) {
	record := &models.AttendanceRecord{}
	err := row.Scan(&record.ID, &record.TicketID, &record.CustomerName, &record.BarberID,
		&record.PriceCharged, &record.PaymentMethod, &record.CompletedAt, &record.BarberName)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *attendanceRepository) getRecord(query string, arg interface{}) (*models.AttendanceRecord, error) {
	record, err := scanAttendance(r.db.QueryRow(query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting attendance record: %v", ErrDatabaseError, err)
	}

	items, err := r.itemsFor(record.ID)
	if err != nil {
		return nil, err
	}
	record.Items = items
	return record, nil
}

func (r *attendanceRepository) GetRecordByID(recordID int64) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + `
	          FROM attendance_records a
	          JOIN barbers b ON b.id = a.barber_id
	          WHERE a.id = $1`
	return r.getRecord(query, recordID)
}

func (r *attendanceRepository) GetRecordByTicketID(ticketID int64) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + `
	          FROM attendance_records a
	          JOIN barbers b ON b.id = a.barber_id
	          WHERE a.ticket_id = $1`
	return r.getRecord(query, ticketID)
}

func (r *attendanceRepository) itemsFor(attendanceID int64) ([]models.AttendanceItem, error) {
	items := []models.AttendanceItem{}
	rows, err := r.db.Query(
		`SELECT id, attendance_id, service_id, service_name, price
		 FROM attendance_items
		 WHERE attendance_id = $1
		 ORDER BY id ASC`, attendanceID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying attendance items: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.AttendanceItem
		if err := rows.Scan(&item.ID, &item.AttendanceID, &item.ServiceID, &item.ServiceName, &item.Price); err != nil {
			return nil, fmt.Errorf("%w: scanning attendance item: %v", ErrDatabaseError, err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating attendance item rows: %v", ErrDatabaseError, err)
	}
	return items, nil
}

// Date ranges are inclusive of both endpoints; endDate is widened by a day
// to cover the whole closing date of TIMESTAMPTZ rows.
const dateRangeFilter = `a.completed_at >= $1::date AND a.completed_at < ($2::date + INTERVAL '1 day')`

func (r *attendanceRepository) ListRecords(startDate, endDate string, barberID *int64) ([]models.AttendanceRecord, error) {
	records := []models.AttendanceRecord{}
	query := `SELECT ` + attendanceColumns + `
	          FROM attendance_records a
	          JOIN barbers b ON b.id = a.barber_id
	          WHERE ` + dateRangeFilter
	args := []interface{}{startDate, endDate}
	if barberID != nil {
		query += ` AND a.barber_id = $3`
		args = append(args, *barberID)
	}
	query += ` ORDER BY a.completed_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying attendance records: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		record, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning attendance record: %v", ErrDatabaseError, err)
		}
		records = append(records, *record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating attendance record rows: %v", ErrDatabaseError, err)
	}
	return records, nil
}

func (r *attendanceRepository) DeleteRecord(executor SQLExecutor, recordID int64) error {
	result, err := executor.Exec(`DELETE FROM attendance_records WHERE id = $1`, recordID)
	if err != nil {
		return fmt.Errorf("%w: deleting attendance record ID %d: %v", ErrDatabaseError, recordID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for attendance delete: %v", ErrDatabaseError, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRecordsInRange drops every record in the range, optionally for one
// barber, and reports how many rows went. Items cascade with the records.
func (r *attendanceRepository) DeleteRecordsInRange(executor SQLExecutor, startDate, endDate string, barberID *int64) (int64, error) {
	query := `DELETE FROM attendance_records a WHERE ` + dateRangeFilter
	args := []interface{}{startDate, endDate}
	if barberID != nil {
		query += ` AND a.barber_id = $3`
		args = append(args, *barberID)
	}

	result, err := executor.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting attendance records in range: %v", ErrDatabaseError, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for bulk attendance delete: %v", ErrDatabaseError, err)
	}
	return deleted, nil
}

// EarningsByBarber aggregates revenue per barber over the range and applies
// each barber's current commission percentage.
func (r *attendanceRepository) EarningsByBarber(startDate, endDate string) ([]models.BarberEarnings, error) {
	earnings := []models.BarberEarnings{}
	query := `SELECT b.id, b.display_name, b.commission_percentage,
	                 COUNT(a.id), COALESCE(SUM(a.price_charged), 0),
	                 COALESCE(SUM(a.price_charged), 0) * b.commission_percentage / 100
	          FROM barbers b
	          JOIN attendance_records a ON a.barber_id = b.id AND ` + dateRangeFilter + `
	          GROUP BY b.id, b.display_name, b.commission_percentage
	          ORDER BY SUM(a.price_charged) DESC`
	rows, err := r.db.Query(query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: querying barber earnings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.BarberEarnings
		if err := rows.Scan(&e.BarberID, &e.BarberName, &e.CommissionPercentage,
			&e.TicketsCompleted, &e.TotalRevenue, &e.Commission); err != nil {
			return nil, fmt.Errorf("%w: scanning barber earnings: %v", ErrDatabaseError, err)
		}
		earnings = append(earnings, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating barber earnings rows: %v", ErrDatabaseError, err)
	}
	return earnings, nil
}

func (r *attendanceRepository) PopularServices(startDate, endDate string, limit int) ([]models.PopularService, error) {
	popular := []models.PopularService{}
	query := `SELECT i.service_id, i.service_name, COUNT(*), COALESCE(SUM(i.price), 0)
	          FROM attendance_items i
	          JOIN attendance_records a ON a.id = i.attendance_id
	          WHERE ` + dateRangeFilter + `
	          GROUP BY i.service_id, i.service_name
	          ORDER BY COUNT(*) DESC, SUM(i.price) DESC
	          LIMIT $3`
	rows, err := r.db.Query(query, startDate, endDate, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying popular services: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PopularService
		if err := rows.Scan(&p.ServiceID, &p.ServiceName, &p.TimesSold, &p.Revenue); err != nil {
			return nil, fmt.Errorf("%w: scanning popular service: %v", ErrDatabaseError, err)
		}
		popular = append(popular, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating popular service rows: %v", ErrDatabaseError, err)
	}
	return popular, nil
}

func (r *attendanceRepository) DailyRevenue(startDate, endDate string) ([]models.DailyRevenuePoint, error) {
	points := []models.DailyRevenuePoint{}
	query := `SELECT TO_CHAR(a.completed_at::date, 'YYYY-MM-DD'), COALESCE(SUM(a.price_charged), 0), COUNT(*)
	          FROM attendance_records a
	          WHERE ` + dateRangeFilter + `
	          GROUP BY a.completed_at::date
	          ORDER BY a.completed_at::date ASC`
	rows, err := r.db.Query(query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("%w: querying daily revenue: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.DailyRevenuePoint
		if err := rows.Scan(&p.Date, &p.Revenue, &p.Tickets); err != nil {
			return nil, fmt.Errorf("%w: scanning daily revenue point: %v", ErrDatabaseError, err)
		}
		points = append(points, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating daily revenue rows: %v", ErrDatabaseError, err)
	}
	return points, nil
}
