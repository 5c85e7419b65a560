package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/notify"
	"barbershop_backend/internal/repositories"
	"barbershop_backend/pkg/utils"

	"github.com/google/uuid"
)

// --- Data Transfer Objects (DTOs) ---

// JoinRequest is the payload for entering the queue.
type JoinRequest struct {
	CustomerName  string  `json:"customer_name" binding:"required"`
	CustomerPhone string  `json:"customer_phone" binding:"required"`
	Priority      string  `json:"priority"`
	Origin        string  `json:"origin"`
	ServiceIDs    []int64 `json:"service_ids" binding:"required"`
	BarberID      *int64  `json:"barber_id"`
	Notes         *string `json:"notes"`
}

// GroupMember is one companion inside a group join. Companions ride on the
// lead customer's phone, so there is no contact field here; the barber
// defaults to the lead's when omitted.
type GroupMember struct {
	CustomerName string  `json:"customer_name" binding:"required"`
	Priority     string  `json:"priority"`
	ServiceIDs   []int64 `json:"service_ids" binding:"required"`
	BarberID     *int64  `json:"barber_id"`
}

// GroupJoinRequest enters a lead customer plus companions as consecutive
// tickets sharing a group ID. All-or-nothing: one bad member fails the lot.
type GroupJoinRequest struct {
	Lead    JoinRequest   `json:"lead" binding:"required"`
	Members []GroupMember `json:"members" binding:"required"`
}

// CompleteRequest closes out an in-progress ticket. PriceCharged overrides
// the cart total when the barber gave a discount or charged extra.
type CompleteRequest struct {
	PriceCharged  *float64 `json:"price_charged"`
	PaymentMethod *string  `json:"payment_method"`
}

// TransferRequest reassigns a ticket to another barber.
type TransferRequest struct {
	ToBarberID int64   `json:"to_barber_id" binding:"required"`
	Reason     *string `json:"reason"`
}

// QueueBoard is the full live view shown on the shop display.
type QueueBoard struct {
	Waiting    []models.QueuePosition `json:"waiting"`
	Called     []models.Ticket        `json:"called"`
	InProgress []models.Ticket        `json:"in_progress"`
	Settings   models.QueueSettings   `json:"settings"`
	Barbers    []models.Barber        `json:"barbers"`
}

// --- End of DTOs ---

// QueueService owns the ticket lifecycle. Every mutation runs in one
// transaction; transitions are guarded in SQL so concurrent actors cannot
// double-apply them, and the outbox event rides in the same transaction.
type QueueService interface {
	Join(req JoinRequest) (*models.QueuePosition, error)
	JoinGroup(req GroupJoinRequest) ([]models.QueuePosition, error)
	Call(ticketID, barberID int64) (*models.Ticket, error)
	Start(ticketID int64, barberID *int64) (*models.Ticket, error)
	Complete(ticketID int64, req CompleteRequest, actorBarberID *int64) (*models.AttendanceRecord, error)
	NoShow(ticketID int64) (*models.Ticket, error)
	Leave(ticketID int64, customerPhone string) error
	Remove(ticketID int64) error
	Transfer(ticketID int64, req TransferRequest) (*models.Ticket, error)
	AddService(ticketID, serviceID int64) (*models.Ticket, error)
	RemoveService(ticketID, serviceID int64) (*models.Ticket, error)
	GetTicket(ticketID int64) (*models.Ticket, error)
	GetPosition(ticketID int64) (*models.QueuePosition, error)
	ListWaiting() ([]models.QueuePosition, error)
	Board() (*QueueBoard, error)
	SweepNoShows(grace time.Duration) (int, error)
}

type queueService struct {
	adm          admitter
	ticketRepo   repositories.TicketRepository
	serviceRepo  repositories.ServiceRepository
	barberRepo   repositories.BarberRepository
	settingsRepo repositories.SettingsRepository
	transferRepo repositories.TransferRepository
	attendRepo   repositories.AttendanceRepository
	outboxRepo   repositories.OutboxRepository
	dispatcher   notify.Dispatcher
	db           *sql.DB
}

// NewQueueService creates a new instance of QueueService.
func NewQueueService(
	tr repositories.TicketRepository,
	sr repositories.ServiceRepository,
	br repositories.BarberRepository,
	str repositories.SettingsRepository,
	trr repositories.TransferRepository,
	ar repositories.AttendanceRepository,
	or repositories.OutboxRepository,
	dispatcher notify.Dispatcher,
	db *sql.DB,
) QueueService {
	return &queueService{
		adm:          admitter{ticketRepo: tr, serviceRepo: sr, barberRepo: br, outboxRepo: or},
		ticketRepo:   tr,
		serviceRepo:  sr,
		barberRepo:   br,
		settingsRepo: str,
		transferRepo: trr,
		attendRepo:   ar,
		outboxRepo:   or,
		dispatcher:   dispatcher,
		db:           db,
	}
}

// transitionErr maps guard misses onto the service taxonomy.
func transitionErr(err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrTicketNotFound
	case errors.Is(err, repositories.ErrStaleStatus):
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	default:
		return err
	}
}

func ticketPayload(t *models.Ticket) notify.TicketPayload {
	return notify.TicketPayload{
		TicketID:      t.ID,
		TicketNumber:  t.TicketNumber,
		CustomerName:  t.CustomerName,
		CustomerPhone: t.CustomerPhone,
	}
}

func barberAlertPayload(t *models.Ticket, event string) notify.BarberAlertPayload {
	return notify.BarberAlertPayload{
		BarberID:     t.BarberID,
		TicketID:     t.ID,
		TicketNumber: t.TicketNumber,
		CustomerName: t.CustomerName,
		Event:        event,
	}
}

// announceTicket fires the customer confirmation plus the staff alert for a
// freshly created ticket.
func (s *queueService) announceTicket(t *models.Ticket) {
	if err := s.dispatcher.TicketCreated(ticketPayload(t)); err != nil {
		utils.LogError(err, "failed to enqueue ticket created notification")
	}
	if err := s.dispatcher.BarberAlert(barberAlertPayload(t, notify.BarberAlertJoined)); err != nil {
		utils.LogError(err, "failed to enqueue barber alert")
	}
}

// admitter runs the join-time gate checks and creates one ticket with its
// cart. It is shared by direct joins and request approvals so both paths
// enforce the same rules. The caller must hold the queue_settings row lock on
// tx already, so these checks are serialized between concurrent joins.
type admitter struct {
	ticketRepo  repositories.TicketRepository
	serviceRepo repositories.ServiceRepository
	barberRepo  repositories.BarberRepository
	outboxRepo  repositories.OutboxRepository
}

func (a admitter) admit(tx *sql.Tx, settings *models.QueueSettings, req JoinRequest, groupID *string, alreadyAdmitted int) (*models.Ticket, error) {
	if req.Priority == "" {
		req.Priority = models.PriorityNormal
	}
	if req.Priority != models.PriorityNormal && req.Priority != models.PriorityPreferencial {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, req.Priority)
	}
	if req.Origin == "" {
		req.Origin = models.OriginOnline
	}
	if req.Origin != models.OriginOnline && req.Origin != models.OriginWalkin {
		return nil, fmt.Errorf("%w: unknown origin %q", ErrValidation, req.Origin)
	}

	if !settings.Active {
		return nil, ErrQueueClosed
	}
	// Walk-ins are keyed in by staff standing in the shop, so only online
	// joins check the published opening window.
	if req.Origin == models.OriginOnline {
		open, err := WithinOpenHours(time.Now(), settings.OpeningTime, settings.ClosingTime)
		if err != nil {
			return nil, err
		}
		if !open {
			return nil, fmt.Errorf("%w: outside opening hours %s-%s", ErrQueueClosed, settings.OpeningTime, settings.ClosingTime)
		}
	}

	active, err := a.ticketRepo.CountActiveTickets(tx)
	if err != nil {
		return nil, err
	}
	if active+alreadyAdmitted >= settings.MaxQueueSize {
		return nil, fmt.Errorf("%w: %d of %d slots used", ErrCapacityExceeded, active+alreadyAdmitted, settings.MaxQueueSize)
	}

	phone := utils.NormalizePhone(req.CustomerPhone)
	if phone == "" {
		return nil, fmt.Errorf("%w: customer phone is required", ErrValidation)
	}
	hasActive, err := a.ticketRepo.HasActiveTicketForPhone(tx, phone, groupID)
	if err != nil {
		return nil, err
	}
	if hasActive {
		return nil, fmt.Errorf("%w: phone %s", ErrDuplicateActiveTicket, phone)
	}

	if len(req.ServiceIDs) == 0 {
		return nil, ErrEmptyCart
	}
	catalog, err := a.serviceRepo.GetActiveServicesByIDs(tx, req.ServiceIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Service, len(catalog))
	for _, svc := range catalog {
		byID[svc.ID] = svc
	}

	if req.BarberID != nil {
		if _, err := a.barberRepo.IsBarberAvailable(tx, *req.BarberID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: barber ID %d", ErrBarberNotFound, *req.BarberID)
			}
			return nil, err
		}
	}

	number, err := a.ticketRepo.NextTicketNumber(tx, time.Now())
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{
		TicketNumber:  FormatTicketNumber(req.Priority, number),
		CustomerName:  req.CustomerName,
		CustomerPhone: phone,
		Status:        models.StatusWaiting,
		Priority:      req.Priority,
		Origin:        req.Origin,
		BarberID:      req.BarberID,
		GroupID:       groupID,
		Notes:         req.Notes,
		CreatedAt:     time.Now(),
	}
	if _, err := a.ticketRepo.CreateTicket(tx, ticket); err != nil {
		return nil, err
	}

	for _, serviceID := range req.ServiceIDs {
		svc, ok := byID[serviceID]
		if !ok {
			return nil, fmt.Errorf("%w: service ID %d", ErrServiceNotFound, serviceID)
		}
		line := models.CartLine{
			TicketID:    ticket.ID,
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Price:       svc.Price,
		}
		if err := a.ticketRepo.InsertCartLine(tx, &line); err != nil {
			return nil, err
		}
		ticket.CartLines = append(ticket.CartLines, line)
	}

	if _, err := a.outboxRepo.InsertEvent(tx, repositories.EventTicketCreated, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *queueService) Join(req JoinRequest) (*models.QueuePosition, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	settings, err := s.settingsRepo.GetSettingsForUpdate(tx)
	if err != nil {
		return nil, err
	}

	ticket, err := s.adm.admit(tx, settings, req, nil, 0)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit join transaction: %w", err)
	}

	s.announceTicket(ticket)
	return s.GetPosition(ticket.ID)
}

func (s *queueService) JoinGroup(req GroupJoinRequest) ([]models.QueuePosition, error) {
	if len(req.Members)+1 > MaxGroupSize {
		return nil, fmt.Errorf("%w: at most %d people per group", ErrGroupJoinFailed, MaxGroupSize)
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

	groupID := uuid.NewString()
	tickets := make([]*models.Ticket, 0, len(req.Members)+1)

	lead, err := s.adm.admit(tx, settings, req.Lead, &groupID, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: lead: %v", ErrGroupJoinFailed, err)
	}
	tickets = append(tickets, lead)

	for i, member := range req.Members {
		barberID := member.BarberID
		if barberID == nil {
			barberID = req.Lead.BarberID
		}
		memberReq := JoinRequest{
			CustomerName:  member.CustomerName,
			CustomerPhone: req.Lead.CustomerPhone,
			Priority:      member.Priority,
			Origin:        req.Lead.Origin,
			ServiceIDs:    member.ServiceIDs,
			BarberID:      barberID,
		}
		ticket, err := s.adm.admit(tx, settings, memberReq, &groupID, len(tickets))
		if err != nil {
			return nil, fmt.Errorf("%w: member %d: %v", ErrGroupJoinFailed, i+1, err)
		}
		tickets = append(tickets, ticket)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit group join transaction: %w", err)
	}

	positions := make([]models.QueuePosition, 0, len(tickets))
	for _, ticket := range tickets {
		s.announceTicket(ticket)
		position, err := s.GetPosition(ticket.ID)
		if err != nil {
			return nil, err
		}
		positions = append(positions, *position)
	}
	return positions, nil
}

func (s *queueService) Call(ticketID, barberID int64) (*models.Ticket, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	available, err := s.barberRepo.IsBarberAvailable(tx, barberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: barber ID %d", ErrBarberNotFound, barberID)
		}
		return nil, err
	}
	if !available {
		return nil, fmt.Errorf("%w: barber ID %d is busy or offline", ErrBarberRequired, barberID)
	}

	if err := s.ticketRepo.MarkCalled(tx, ticketID, barberID, time.Now()); err != nil {
		return nil, transitionErr(err)
	}
	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventTicketCalled,
		map[string]int64{"ticket_id": ticketID, "barber_id": barberID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit call transaction: %w", err)
	}

	ticket, err := s.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}
	payload := ticketPayload(ticket)
	if ticket.BarberName != nil {
		payload.BarberName = *ticket.BarberName
	}
	if err := s.dispatcher.TicketCalled(payload); err != nil {
		utils.LogError(err, "failed to enqueue ticket called notification")
	}
	return ticket, nil
}

// requireOwnership rejects a barber acting on a ticket assigned to someone
// else. actorBarberID is nil for admins.
func requireOwnership(ticket *models.Ticket, actorBarberID *int64) error {
	if actorBarberID == nil {
		return nil
	}
	if ticket.BarberID == nil || *ticket.BarberID != *actorBarberID {
		return fmt.Errorf("%w: ticket %d belongs to another barber", ErrForbidden, ticket.ID)
	}
	return nil
}

// Start flips a called ticket into service and binds it to the barber doing
// the cut, replacing whatever assignment the call made. A nil barberID keeps
// the current assignment; a ticket with no assignment at all cannot start.
func (s *queueService) Start(ticketID int64, barberID *int64) (*models.Ticket, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	ticket, err := s.ticketRepo.LockTicket(tx, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	if barberID == nil {
		barberID = ticket.BarberID
	}
	if barberID == nil {
		return nil, fmt.Errorf("%w: ticket %d has no assigned barber", ErrBarberRequired, ticketID)
	}
	if _, err := s.barberRepo.IsBarberAvailable(tx, *barberID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: barber ID %d", ErrBarberNotFound, *barberID)
		}
		return nil, err
	}

	if err := s.ticketRepo.MarkStarted(tx, ticketID, *barberID, time.Now()); err != nil {
		return nil, transitionErr(err)
	}
	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventTicketStarted,
		map[string]int64{"ticket_id": ticketID, "barber_id": *barberID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit start transaction: %w", err)
	}
	return s.GetTicket(ticketID)
}

func (s *queueService) Complete(ticketID int64, req CompleteRequest, actorBarberID *int64) (*models.AttendanceRecord, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	ticket, err := s.ticketRepo.LockTicket(tx, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if err := requireOwnership(ticket, actorBarberID); err != nil {
		return nil, err
	}
	if ticket.BarberID == nil {
		return nil, fmt.Errorf("%w: ticket %d has no assigned barber", ErrBarberRequired, ticketID)
	}

	lines, err := s.ticketRepo.GetCartLinesTx(tx, ticketID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	completedAt := time.Now()
	if err := s.ticketRepo.MarkCompleted(tx, ticketID, completedAt); err != nil {
		return nil, transitionErr(err)
	}

	priceCharged := CartTotal(lines)
	if req.PriceCharged != nil {
		if *req.PriceCharged < 0 {
			return nil, fmt.Errorf("%w: price charged cannot be negative", ErrValidation)
		}
		priceCharged = *req.PriceCharged
	}

	record := &models.AttendanceRecord{
		TicketID:      ticketID,
		CustomerName:  ticket.CustomerName,
		BarberID:      *ticket.BarberID,
		PriceCharged:  priceCharged,
		PaymentMethod: req.PaymentMethod,
		CompletedAt:   completedAt,
	}
	for _, line := range lines {
		record.Items = append(record.Items, models.AttendanceItem{
			ServiceID:   line.ServiceID,
			ServiceName: line.ServiceName,
			Price:       line.Price,
		})
	}
	if _, err := s.attendRepo.CreateRecord(tx, record); err != nil {
		return nil, err
	}

	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventTicketCompleted, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit complete transaction: %w", err)
	}
	return record, nil
}

func (s *queueService) noShowTx(ticketID int64) (*models.Ticket, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ticketRepo.MarkNoShow(tx, ticketID); err != nil {
		return nil, transitionErr(err)
	}
	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventTicketNoShow,
		map[string]int64{"ticket_id": ticketID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit no-show transaction: %w", err)
	}
	return s.GetTicket(ticketID)
}

func (s *queueService) NoShow(ticketID int64) (*models.Ticket, error) {
	ticket, err := s.noShowTx(ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.dispatcher.TicketNoShow(ticketPayload(ticket)); err != nil {
		utils.LogError(err, "failed to enqueue no-show notification")
	}
	return ticket, nil
}

// Leave lets a customer abandon their own ticket. The phone must match so one
// customer cannot drop another's ticket.
func (s *queueService) Leave(ticketID int64, customerPhone string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	ticket, err := s.ticketRepo.LockTicket(tx, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrTicketNotFound
		}
		return err
	}
	if utils.NormalizePhone(customerPhone) != ticket.CustomerPhone {
		return fmt.Errorf("%w: phone does not match ticket %d", ErrForbidden, ticketID)
	}

	if err := s.ticketRepo.MarkRemoved(tx, ticketID); err != nil {
		return transitionErr(err)
	}
	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventTicketRemoved,
		map[string]int64{"ticket_id": ticketID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit leave transaction: %w", err)
	}
	return nil
}

// Remove is the staff-side removal; no phone check.
func (s *queueService) Remove(ticketID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.ticketRepo.MarkRemoved(tx, ticketID); err != nil {
		return transitionErr(err)
	}
	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventTicketRemoved,
		map[string]int64{"ticket_id": ticketID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit remove transaction: %w", err)
	}
	return nil
}

func (s *queueService) Transfer(ticketID int64, req TransferRequest) (*models.Ticket, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	ticket, err := s.ticketRepo.LockTicket(tx, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	// Only tickets that have not started move chairs. An active cut is never
	// pulled out from under its barber.
	if ticket.Status != models.StatusWaiting && ticket.Status != models.StatusCalled {
		return nil, fmt.Errorf("%w: ticket %d is %s", ErrInvalidTransition, ticketID, ticket.Status)
	}
	if ticket.BarberID != nil && *ticket.BarberID == req.ToBarberID {
		return nil, fmt.Errorf("%w: ticket %d already belongs to barber %d", ErrValidation, ticketID, req.ToBarberID)
	}

	if _, err := s.barberRepo.IsBarberAvailable(tx, req.ToBarberID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: barber ID %d", ErrBarberNotFound, req.ToBarberID)
		}
		return nil, err
	}

	if err := s.ticketRepo.UpdateTicketBarber(tx, ticketID, req.ToBarberID); err != nil {
		return nil, transitionErr(err)
	}
	transfer := &models.Transfer{
		TicketID:     ticketID,
		FromBarberID: ticket.BarberID,
		ToBarberID:   req.ToBarberID,
		Reason:       req.Reason,
	}
	if _, err := s.transferRepo.CreateTransfer(tx, transfer); err != nil {
		return nil, err
	}
	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventTicketTransfer, transfer); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transfer transaction: %w", err)
	}

	if err := s.dispatcher.BarberAlert(notify.BarberAlertPayload{
		BarberID:     &req.ToBarberID,
		TicketID:     ticketID,
		TicketNumber: ticket.TicketNumber,
		CustomerName: ticket.CustomerName,
		Event:        notify.BarberAlertTransferred,
	}); err != nil {
		utils.LogError(err, "failed to enqueue barber alert")
	}
	return s.GetTicket(ticketID)
}

func (s *queueService) AddService(ticketID, serviceID int64) (*models.Ticket, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	ticket, err := s.ticketRepo.LockTicket(tx, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if models.IsTerminal(ticket.Status) {
		return nil, fmt.Errorf("%w: cart of %s ticket %d is frozen", ErrInvalidTransition, ticket.Status, ticketID)
	}

	catalog, err := s.serviceRepo.GetActiveServicesByIDs(tx, []int64{serviceID})
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("%w: service ID %d", ErrServiceNotFound, serviceID)
	}
	svc := catalog[0]

	line := models.CartLine{
		TicketID:    ticketID,
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Price:       svc.Price,
	}
	if err := s.ticketRepo.InsertCartLine(tx, &line); err != nil {
		return nil, err
	}
	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventCartUpdated,
		map[string]int64{"ticket_id": ticketID, "service_id": serviceID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit add-service transaction: %w", err)
	}
	return s.GetTicket(ticketID)
}

func (s *queueService) RemoveService(ticketID, serviceID int64) (*models.Ticket, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	ticket, err := s.ticketRepo.LockTicket(tx, ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if models.IsTerminal(ticket.Status) {
		return nil, fmt.Errorf("%w: cart of %s ticket %d is frozen", ErrInvalidTransition, ticket.Status, ticketID)
	}

	count, err := s.ticketRepo.CountCartLines(tx, ticketID)
	if err != nil {
		return nil, err
	}
	if count <= 1 {
		return nil, fmt.Errorf("%w: cannot remove the last service", ErrEmptyCart)
	}

	if err := s.ticketRepo.DeleteOneCartLine(tx, ticketID, serviceID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: service ID %d is not in the cart", ErrServiceNotFound, serviceID)
		}
		return nil, err
	}
	if _, err := s.outboxRepo.InsertEvent(tx, repositories.EventCartUpdated,
		map[string]int64{"ticket_id": ticketID, "service_id": serviceID}); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit remove-service transaction: %w", err)
	}
	return s.GetTicket(ticketID)
}

func (s *queueService) GetTicket(ticketID int64) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetTicketByID(ticketID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (s *queueService) GetPosition(ticketID int64) (*models.QueuePosition, error) {
	ticket, err := s.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != models.StatusWaiting {
		return &models.QueuePosition{Ticket: *ticket}, nil
	}

	waiting, err := s.ticketRepo.ListWaitingTickets()
	if err != nil {
		return nil, err
	}
	avgSeconds, err := s.ticketRepo.AvgServiceDurationSeconds(durationSampleSize)
	if err != nil {
		return nil, err
	}

	position := positionOf(waiting, ticketID)
	return &models.QueuePosition{
		Ticket:        *ticket,
		Position:      position,
		EstimatedWait: EstimateWaitMinutes(position, avgSeconds),
	}, nil
}

func (s *queueService) ListWaiting() ([]models.QueuePosition, error) {
	waiting, err := s.ticketRepo.ListWaitingTickets()
	if err != nil {
		return nil, err
	}
	avgSeconds, err := s.ticketRepo.AvgServiceDurationSeconds(durationSampleSize)
	if err != nil {
		return nil, err
	}

	positions := make([]models.QueuePosition, 0, len(waiting))
	for i, ticket := range waiting {
		positions = append(positions, models.QueuePosition{
			Ticket:        ticket,
			Position:      i + 1,
			EstimatedWait: EstimateWaitMinutes(i+1, avgSeconds),
		})
	}
	return positions, nil
}

func (s *queueService) Board() (*QueueBoard, error) {
	waiting, err := s.ListWaiting()
	if err != nil {
		return nil, err
	}
	called, err := s.ticketRepo.ListTicketsByStatus([]string{models.StatusCalled})
	if err != nil {
		return nil, err
	}
	inProgress, err := s.ticketRepo.ListTicketsByStatus([]string{models.StatusInProgress})
	if err != nil {
		return nil, err
	}
	settings, err := s.settingsRepo.GetSettings()
	if err != nil {
		return nil, err
	}
	barbers, err := s.barberRepo.GetBarbers(false)
	if err != nil {
		return nil, err
	}

	return &QueueBoard{
		Waiting:    waiting,
		Called:     called,
		InProgress: inProgress,
		Settings:   *settings,
		Barbers:    barbers,
	}, nil
}

// SweepNoShows flips called tickets whose grace period ran out. Each ticket
// gets its own transaction; a ticket that raced into in_progress is skipped,
// not failed.
func (s *queueService) SweepNoShows(grace time.Duration) (int, error) {
	ids, err := s.ticketRepo.StaleCalledTickets(time.Now().Add(-grace))
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, id := range ids {
		ticket, err := s.noShowTx(id)
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrTicketNotFound) {
				continue
			}
			return swept, err
		}
		swept++
		if err := s.dispatcher.TicketNoShow(ticketPayload(ticket)); err != nil {
			utils.LogError(err, "failed to enqueue no-show notification")
		}
	}
	return swept, nil
}
