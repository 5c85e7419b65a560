package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"barbershop_backend/internal/middleware"
	"barbershop_backend/internal/models"
	"barbershop_backend/internal/services"

	"github.com/gin-gonic/gin"
)

type fakeQueueService struct {
	joinFn        func(req services.JoinRequest) (*models.QueuePosition, error)
	joinGroupFn   func(req services.GroupJoinRequest) ([]models.QueuePosition, error)
	callFn        func(ticketID, barberID int64) (*models.Ticket, error)
	startFn       func(ticketID int64, barberID *int64) (*models.Ticket, error)
	completeFn    func(ticketID int64, req services.CompleteRequest, actorBarberID *int64) (*models.AttendanceRecord, error)
	noShowFn      func(ticketID int64) (*models.Ticket, error)
	leaveFn       func(ticketID int64, customerPhone string) error
	removeFn      func(ticketID int64) error
	transferFn    func(ticketID int64, req services.TransferRequest) (*models.Ticket, error)
	addServiceFn  func(ticketID, serviceID int64) (*models.Ticket, error)
	getTicketFn   func(ticketID int64) (*models.Ticket, error)
	getPositionFn func(ticketID int64) (*models.QueuePosition, error)
	listWaitingFn func() ([]models.QueuePosition, error)
}

func (f fakeQueueService) Join(req services.JoinRequest) (*models.QueuePosition, error) {
	if f.joinFn == nil {
		return &models.QueuePosition{}, nil
	}
	return f.joinFn(req)
}

func (f fakeQueueService) JoinGroup(req services.GroupJoinRequest) ([]models.QueuePosition, error) {
	if f.joinGroupFn == nil {
		return nil, nil
	}
	return f.joinGroupFn(req)
}

func (f fakeQueueService) Call(ticketID, barberID int64) (*models.Ticket, error) {
	if f.callFn == nil {
		return &models.Ticket{}, nil
	}
	return f.callFn(ticketID, barberID)
}

func (f fakeQueueService) Start(ticketID int64, barberID *int64) (*models.Ticket, error) {
	if f.startFn == nil {
		return &models.Ticket{}, nil
	}
	return f.startFn(ticketID, barberID)
}

func (f fakeQueueService) Complete(ticketID int64, req services.CompleteRequest, actorBarberID *int64) (*models.AttendanceRecord, error) {
	if f.completeFn == nil {
		return &models.AttendanceRecord{}, nil
	}
	return f.completeFn(ticketID, req, actorBarberID)
}

func (f fakeQueueService) NoShow(ticketID int64) (*models.Ticket, error) {
	if f.noShowFn == nil {
		return &models.Ticket{}, nil
	}
	return f.noShowFn(ticketID)
}

func (f fakeQueueService) Leave(ticketID int64, customerPhone string) error {
	if f.leaveFn == nil {
		return nil
	}
	return f.leaveFn(ticketID, customerPhone)
}

func (f fakeQueueService) Remove(ticketID int64) error {
	if f.removeFn == nil {
		return nil
	}
	return f.removeFn(ticketID)
}

func (f fakeQueueService) Transfer(ticketID int64, req services.TransferRequest) (*models.Ticket, error) {
	if f.transferFn == nil {
		return &models.Ticket{}, nil
	}
	return f.transferFn(ticketID, req)
}

func (f fakeQueueService) AddService(ticketID, serviceID int64) (*models.Ticket, error) {
	if f.addServiceFn == nil {
		return &models.Ticket{}, nil
	}
	return f.addServiceFn(ticketID, serviceID)
}

func (f fakeQueueService) RemoveService(ticketID, serviceID int64) (*models.Ticket, error) {
	return &models.Ticket{}, nil
}

func (f fakeQueueService) GetTicket(ticketID int64) (*models.Ticket, error) {
	if f.getTicketFn == nil {
		return &models.Ticket{}, nil
	}
	return f.getTicketFn(ticketID)
}

func (f fakeQueueService) GetPosition(ticketID int64) (*models.QueuePosition, error) {
	if f.getPositionFn == nil {
		return &models.QueuePosition{}, nil
	}
	return f.getPositionFn(ticketID)
}

func (f fakeQueueService) ListWaiting() ([]models.QueuePosition, error) {
	if f.listWaitingFn == nil {
		return nil, nil
	}
	return f.listWaitingFn()
}

func (f fakeQueueService) Board() (*services.QueueBoard, error) {
	return &services.QueueBoard{}, nil
}

func (f fakeQueueService) SweepNoShows(grace time.Duration) (int, error) {
	return 0, nil
}

type fakeCatalogService struct {
	services.CatalogService

	barberByUserFn func(userID int64) (*models.Barber, error)
}

func (f fakeCatalogService) GetBarberByUserID(userID int64) (*models.Barber, error) {
	if f.barberByUserFn == nil {
		return &models.Barber{ID: 1}, nil
	}
	return f.barberByUserFn(userID)
}

// newQueueRouter wires the handler the way the router package does, with a
// stub auth middleware injecting the given identity.
func newQueueRouter(qs services.QueueService, cs services.CatalogService, role string, userID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	if role != "" {
		engine.Use(func(c *gin.Context) {
			c.Set(middleware.CtxUserID, userID)
			c.Set(middleware.CtxUserRole, role)
			c.Next()
		})
	}

	h := NewQueueHandler(qs, cs)
	engine.POST("/queue/join", h.Join)
	engine.POST("/queue/join-group", h.JoinGroup)
	engine.GET("/queue", h.ListWaiting)
	engine.GET("/tickets/:id", h.GetTicket)
	engine.GET("/tickets/:id/position", h.GetPosition)
	engine.POST("/tickets/:id/leave", h.Leave)
	engine.POST("/tickets/:id/call", h.Call)
	engine.POST("/tickets/:id/start", h.Start)
	engine.POST("/tickets/:id/complete", h.Complete)
	engine.POST("/tickets/:id/transfer", h.Transfer)
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestJoinSuccess(t *testing.T) {
	qs := fakeQueueService{
		joinFn: func(req services.JoinRequest) (*models.QueuePosition, error) {
			return &models.QueuePosition{
				Ticket: models.Ticket{
					ID:           5,
					TicketNumber: "N005",
					Status:       models.StatusWaiting,
					CustomerName: req.CustomerName,
				},
				Position:      3,
				EstimatedWait: 40,
			}, nil
		},
	}
	engine := newQueueRouter(qs, fakeCatalogService{}, "", 0)

	resp := doRequest(t, engine, http.MethodPost, "/queue/join", map[string]any{
		"customer_name":  "Joao",
		"customer_phone": "11999990000",
		"service_ids":    []int64{1, 2},
	})

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var position models.QueuePosition
	if err := json.NewDecoder(resp.Body).Decode(&position); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if position.Ticket.TicketNumber != "N005" || position.Position != 3 {
		t.Fatalf("unexpected position response: %+v", position)
	}
}

func TestJoinMissingFields(t *testing.T) {
	engine := newQueueRouter(fakeQueueService{}, fakeCatalogService{}, "", 0)

	resp := doRequest(t, engine, http.MethodPost, "/queue/join", map[string]any{
		"customer_phone": "11999990000",
	})

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestJoinDuplicatePhone(t *testing.T) {
	qs := fakeQueueService{
		joinFn: func(req services.JoinRequest) (*models.QueuePosition, error) {
			return nil, services.ErrDuplicateActiveTicket
		},
	}
	engine := newQueueRouter(qs, fakeCatalogService{}, "", 0)

	resp := doRequest(t, engine, http.MethodPost, "/queue/join", map[string]any{
		"customer_name":  "Joao",
		"customer_phone": "11999990000",
		"service_ids":    []int64{1},
	})

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestJoinQueueClosed(t *testing.T) {
	qs := fakeQueueService{
		joinFn: func(req services.JoinRequest) (*models.QueuePosition, error) {
			return nil, services.ErrQueueClosed
		},
	}
	engine := newQueueRouter(qs, fakeCatalogService{}, "", 0)

	resp := doRequest(t, engine, http.MethodPost, "/queue/join", map[string]any{
		"customer_name":  "Joao",
		"customer_phone": "11999990000",
		"service_ids":    []int64{1},
	})

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestGetTicketBadID(t *testing.T) {
	engine := newQueueRouter(fakeQueueService{}, fakeCatalogService{}, "", 0)

	resp := doRequest(t, engine, http.MethodGet, "/tickets/abc", nil)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestGetTicketNotFound(t *testing.T) {
	qs := fakeQueueService{
		getTicketFn: func(ticketID int64) (*models.Ticket, error) {
			return nil, services.ErrTicketNotFound
		},
	}
	engine := newQueueRouter(qs, fakeCatalogService{}, "", 0)

	resp := doRequest(t, engine, http.MethodGet, "/tickets/42", nil)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestCallAsBarberUsesOwnChair(t *testing.T) {
	var calledWith int64
	qs := fakeQueueService{
		callFn: func(ticketID, barberID int64) (*models.Ticket, error) {
			calledWith = barberID
			return &models.Ticket{ID: ticketID, Status: models.StatusCalled}, nil
		},
	}
	cs := fakeCatalogService{
		barberByUserFn: func(userID int64) (*models.Barber, error) {
			return &models.Barber{ID: 7, UserID: &userID}, nil
		},
	}
	engine := newQueueRouter(qs, cs, models.RoleBarber, 99)

	resp := doRequest(t, engine, http.MethodPost, "/tickets/42/call", nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if calledWith != 7 {
		t.Fatalf("expected call for barber 7, got %d", calledWith)
	}
}

func TestCallAsAdminRequiresBarberID(t *testing.T) {
	engine := newQueueRouter(fakeQueueService{}, fakeCatalogService{}, models.RoleAdmin, 1)

	resp := doRequest(t, engine, http.MethodPost, "/tickets/42/call", map[string]any{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without barber_id, got %d", resp.Code)
	}

	var calledWith int64
	qs := fakeQueueService{
		callFn: func(ticketID, barberID int64) (*models.Ticket, error) {
			calledWith = barberID
			return &models.Ticket{ID: ticketID, Status: models.StatusCalled}, nil
		},
	}
	engine = newQueueRouter(qs, fakeCatalogService{}, models.RoleAdmin, 1)

	resp = doRequest(t, engine, http.MethodPost, "/tickets/42/call", map[string]any{"barber_id": 3})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if calledWith != 3 {
		t.Fatalf("expected call for barber 3, got %d", calledWith)
	}
}

func TestStartAsBarberTakesOwnChair(t *testing.T) {
	var startedWith *int64
	qs := fakeQueueService{
		startFn: func(ticketID int64, barberID *int64) (*models.Ticket, error) {
			startedWith = barberID
			return &models.Ticket{ID: ticketID, Status: models.StatusInProgress}, nil
		},
	}
	cs := fakeCatalogService{
		barberByUserFn: func(userID int64) (*models.Barber, error) {
			return &models.Barber{ID: 7, UserID: &userID}, nil
		},
	}
	engine := newQueueRouter(qs, cs, models.RoleBarber, 99)

	resp := doRequest(t, engine, http.MethodPost, "/tickets/42/start", nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if startedWith == nil || *startedWith != 7 {
		t.Fatalf("expected start bound to barber 7, got %v", startedWith)
	}
}

func TestStartAsAdminOptionalRebind(t *testing.T) {
	var startedWith *int64
	qs := fakeQueueService{
		startFn: func(ticketID int64, barberID *int64) (*models.Ticket, error) {
			startedWith = barberID
			return &models.Ticket{ID: ticketID, Status: models.StatusInProgress}, nil
		},
	}
	engine := newQueueRouter(qs, fakeCatalogService{}, models.RoleAdmin, 1)

	// No body keeps the call-time assignment.
	resp := doRequest(t, engine, http.MethodPost, "/tickets/42/start", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if startedWith != nil {
		t.Fatalf("expected nil barber without a body, got %d", *startedWith)
	}

	// An explicit barber_id rebinds the ticket.
	resp = doRequest(t, engine, http.MethodPost, "/tickets/42/start", map[string]any{"barber_id": 3})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if startedWith == nil || *startedWith != 3 {
		t.Fatalf("expected start rebound to barber 3, got %v", startedWith)
	}
}

func TestTransferInvalidTransition(t *testing.T) {
	qs := fakeQueueService{
		transferFn: func(ticketID int64, req services.TransferRequest) (*models.Ticket, error) {
			return nil, services.ErrInvalidTransition
		},
	}
	engine := newQueueRouter(qs, fakeCatalogService{}, models.RoleAdmin, 1)

	resp := doRequest(t, engine, http.MethodPost, "/tickets/42/transfer", map[string]any{"to_barber_id": 2})

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestLeaveWrongPhone(t *testing.T) {
	qs := fakeQueueService{
		leaveFn: func(ticketID int64, customerPhone string) error {
			return services.ErrForbidden
		},
	}
	engine := newQueueRouter(qs, fakeCatalogService{}, "", 0)

	resp := doRequest(t, engine, http.MethodPost, "/tickets/42/leave", map[string]any{"customer_phone": "11888887777"})

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestLeaveSuccess(t *testing.T) {
	var gotPhone string
	qs := fakeQueueService{
		leaveFn: func(ticketID int64, customerPhone string) error {
			gotPhone = customerPhone
			return nil
		},
	}
	engine := newQueueRouter(qs, fakeCatalogService{}, "", 0)

	resp := doRequest(t, engine, http.MethodPost, "/tickets/42/leave", map[string]any{"customer_phone": "11999990000"})

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", resp.Code)
	}
	if gotPhone != "11999990000" {
		t.Fatalf("unexpected phone forwarded: %q", gotPhone)
	}
}
