package services

import (
	"database/sql"
	"errors"
	"fmt"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/notify"
	"barbershop_backend/internal/repositories"
	"barbershop_backend/pkg/utils"
)

// --- Data Transfer Objects (DTOs) ---

// SubmitRequestInput is a barber's proposal to put a customer in the queue.
type SubmitRequestInput struct {
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone" binding:"required"`
	ServiceID     int64  `json:"service_id" binding:"required"`
	BarberID      *int64 `json:"barber_id"`
}

// ProcessRequestInput carries the admin's decision details.
type ProcessRequestInput struct {
	AdminNotes *string `json:"admin_notes"`
}

// --- End of DTOs ---

// RequestService is the lower-trust entry path. Barbers without the
// direct-entry privilege submit requests; an admin approves or rejects them.
// Approval creates the ticket in the same transaction that flips the request,
// so a failed admission leaves the request pending.
type RequestService interface {
	Submit(input SubmitRequestInput, requesterBarberID int64) (*models.QueueRequest, error)
	Approve(requestID, processedByUserID int64, input ProcessRequestInput) (*models.QueueRequest, error)
	Reject(requestID, processedByUserID int64, input ProcessRequestInput) (*models.QueueRequest, error)
	GetRequest(requestID int64) (*models.QueueRequest, error)
	ListRequests(status string, requestedBy *int64) ([]models.QueueRequest, error)
}

type requestService struct {
	adm          admitter
	requestRepo  repositories.RequestRepository
	serviceRepo  repositories.ServiceRepository
	barberRepo   repositories.BarberRepository
	settingsRepo repositories.SettingsRepository
	outboxRepo   repositories.OutboxRepository
	dispatcher   notify.Dispatcher
	db           *sql.DB
}

// NewRequestService creates a new instance of RequestService.
func NewRequestService(
	rr repositories.RequestRepository,
	sr repositories.ServiceRepository,
	br repositories.BarberRepository,
	str repositories.SettingsRepository,
	tr repositories.TicketRepository,
	or repositories.OutboxRepository,
	dispatcher notify.Dispatcher,
	db *sql.DB,
) RequestService {
	return &requestService{
		adm:          admitter{ticketRepo: tr, serviceRepo: sr, barberRepo: br, outboxRepo: or},
		requestRepo:  rr,
		serviceRepo:  sr,
		barberRepo:   br,
		settingsRepo: str,
		outboxRepo:   or,
		dispatcher:   dispatcher,
		db:           db,
	}
}

func (s *requestService) Submit(input SubmitRequestInput, requesterBarberID int64) (*models.QueueRequest, error) {
	barber, err := s.barberRepo.GetBarberByID(requesterBarberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: barber ID %d", ErrBarberNotFound, requesterBarberID)
		}
		return nil, err
	}
	if barber.DirectEntry {
		return nil, fmt.Errorf("%w: direct-entry barbers join customers directly", ErrValidation)
	}

	svc, err := s.serviceRepo.GetServiceByID(input.ServiceID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: service ID %d", ErrServiceNotFound, input.ServiceID)
		}
		return nil, err
	}
	if !svc.Active {
		return nil, fmt.Errorf("%w: service ID %d is inactive", ErrServiceNotFound, input.ServiceID)
	}

	phone := utils.NormalizePhone(input.CustomerPhone)
	if phone == "" {
		return nil, fmt.Errorf("%w: customer phone is required", ErrValidation)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	request := &models.QueueRequest{
		CustomerName:  input.CustomerName,
		CustomerPhone: phone,
		ServiceID:     input.ServiceID,
		BarberID:      input.BarberID,
		RequestedBy:   requesterBarberID,
	}
	if _, err := s.requestRepo.CreateRequest(tx, request); err != nil {
		return nil, err
	}
	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventRequestSubmitted, request); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit request transaction: %w", err)
	}
	return s.GetRequest(request.ID)
}

func (s *requestService) Approve(requestID, processedByUserID int64, input ProcessRequestInput) (*models.QueueRequest, error) {
	request, err := s.GetRequest(requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("%w: request %d is %s", ErrRequestNotPending, requestID, request.Status)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	settings, err := s.settingsRepo.GetSettingsForUpdate(tx)
	if err != nil {
		return nil, err
	}

	// Staff vouch for the customer being present, so admission follows the
	// walk-in path. All join rules still apply; if admission fails the
	// rollback leaves the request pending.
	joinReq := JoinRequest{
		CustomerName:  request.CustomerName,
		CustomerPhone: request.CustomerPhone,
		Origin:        models.OriginWalkin,
		ServiceIDs:    []int64{request.ServiceID},
		BarberID:      request.BarberID,
	}
	ticket, err := s.adm.admit(tx, settings, joinReq, nil, 0)
	if err != nil {
		return nil, err
	}

	if err := s.requestRepo.MarkApproved(tx, requestID, processedByUserID, ticket.ID, input.AdminNotes); err != nil {
		return nil, requestErr(err)
	}
	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventRequestProcessed,
		map[string]interface{}{"request_id": requestID, "status": models.RequestStatusApproved, "ticket_id": ticket.ID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approve transaction: %w", err)
	}

	if err := s.dispatcher.TicketCreated(ticketPayload(ticket)); err != nil {
		utils.LogError(err, "failed to enqueue ticket created notification")
	}
	if err := s.dispatcher.BarberAlert(barberAlertPayload(ticket, notify.BarberAlertJoined)); err != nil {
		utils.LogError(err, "failed to enqueue barber alert")
	}
	return s.GetRequest(requestID)
}

func (s *requestService) Reject(requestID, processedByUserID int64, input ProcessRequestInput) (*models.QueueRequest, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.requestRepo.MarkRejected(tx, requestID, processedByUserID, input.AdminNotes); err != nil {
		return nil, requestErr(err)
	}
	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventRequestProcessed,
		map[string]interface{}{"request_id": requestID, "status": models.RequestStatusRejected}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reject transaction: %w", err)
	}
	return s.GetRequest(requestID)
}

func (s *requestService) GetRequest(requestID int64) (*models.QueueRequest, error) {
	request, err := s.requestRepo.GetRequestByID(requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

// ListRequests filters by status and, for barbers, by the requester so each
// barber only sees their own submissions. requestedBy is nil for admins.
func (s *requestService) ListRequests(status string, requestedBy *int64) ([]models.QueueRequest, error) {
	if status != "" &&
		status != models.RequestStatusPending &&
		status != models.RequestStatusApproved &&
		status != models.RequestStatusRejected {
		return nil, fmt.Errorf("%w: unknown request status %q", ErrValidation, status)
	}
	return s.requestRepo.ListRequests(status, requestedBy)
}

func requestErr(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrRequestNotFound
	case errors.Is(err, repositories.ErrStaleStatus):
		return fmt.Errorf("%w: %v", ErrRequestNotPending, err)
	default:
		return err
	}
}
