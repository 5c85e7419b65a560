package handlers

import (
	"net/http"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// QueueHandler holds the queue service plus the catalog service used to
// resolve the acting barber from the authenticated user.
type QueueHandler struct {
	queueService   services.QueueService
	catalogService services.CatalogService
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(qs services.QueueService, cs services.CatalogService) *QueueHandler {
	return &QueueHandler{queueService: qs, catalogService: cs}
}

// actorBarberID resolves which barber is acting. Admins act unrestricted
// (nil); barbers act as their own chair.
func (h *QueueHandler) actorBarberID(c *gin.Context) (*int64, bool) {
	if currentRole(c) != models.RoleBarber {
		return nil, true
	}
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	barber, err := h.catalogService.GetBarberByUserID(userID)
	if err != nil {
		respondServiceError(c, err, "actorBarberID: failed to resolve barber for user")
		return nil, false
	}
	return &barber.ID, true
}

// Join enters one customer into the queue.
func (h *QueueHandler) Join(c *gin.Context) {
	var req services.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	position, err := h.queueService.Join(req)
	if err != nil {
		respondServiceError(c, err, "Join: failed to join queue")
		return
	}
	c.JSON(http.StatusCreated, position)
}

// JoinGroup enters a lead customer plus companions.
func (h *QueueHandler) JoinGroup(c *gin.Context) {
	var req services.GroupJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	positions, err := h.queueService.JoinGroup(req)
	if err != nil {
		respondServiceError(c, err, "JoinGroup: failed to join queue as group")
		return
	}
	c.JSON(http.StatusCreated, positions)
}

// ListWaiting returns the ordered waiting queue with positions and wait
// estimates.
func (h *QueueHandler) ListWaiting(c *gin.Context) {
	positions, err := h.queueService.ListWaiting()
	if err != nil {
		respondServiceError(c, err, "ListWaiting: failed to list queue")
		return
	}
	c.JSON(http.StatusOK, positions)
}

// Board returns the full shop display view.
func (h *QueueHandler) Board(c *gin.Context) {
	board, err := h.queueService.Board()
	if err != nil {
		respondServiceError(c, err, "Board: failed to build board")
		return
	}
	c.JSON(http.StatusOK, board)
}

func (h *QueueHandler) GetTicket(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ticket, err := h.queueService.GetTicket(ticketID)
	if err != nil {
		respondServiceError(c, err, "GetTicket: failed to load ticket")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *QueueHandler) GetPosition(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	position, err := h.queueService.GetPosition(ticketID)
	if err != nil {
		respondServiceError(c, err, "GetPosition: failed to compute position")
		return
	}
	c.JSON(http.StatusOK, position)
}

// Call assigns the next customer to a chair. A barber calls to their own
// chair; an admin passes barber_id in the body.
func (h *QueueHandler) Call(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	actor, ok := h.actorBarberID(c)
	if !ok {
		return
	}

	var barberID int64
	if actor != nil {
		barberID = *actor
	} else {
		var req struct {
			BarberID int64 `json:"barber_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
				"barber_id is required when calling as admin: "+err.Error(), err.Error()))
			return
		}
		barberID = req.BarberID
	}

	ticket, err := h.queueService.Call(ticketID, barberID)
	if err != nil {
		respondServiceError(c, err, "Call: failed to call ticket")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// Start begins the cut. A barber starting a ticket takes it to their own
// chair even if someone else called it; an admin may pass barber_id to
// rebind, or omit it to keep the call-time assignment.
func (h *QueueHandler) Start(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actorBarberID(c)
	if !ok {
		return
	}

	barberID := actor
	if barberID == nil && c.Request.ContentLength > 0 {
		var req struct {
			BarberID *int64 `json:"barber_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
				"Invalid request payload: "+err.Error(), err.Error()))
			return
		}
		barberID = req.BarberID
	}

	ticket, err := h.queueService.Start(ticketID, barberID)
	if err != nil {
		respondServiceError(c, err, "Start: failed to start service")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *QueueHandler) Complete(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actorBarberID(c)
	if !ok {
		return
	}

	var req services.CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	record, err := h.queueService.Complete(ticketID, req, actor)
	if err != nil {
		respondServiceError(c, err, "Complete: failed to complete ticket")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *QueueHandler) NoShow(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ticket, err := h.queueService.NoShow(ticketID)
	if err != nil {
		respondServiceError(c, err, "NoShow: failed to mark no-show")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// Leave is the customer-side exit; the phone in the body must match the
// ticket.
func (h *QueueHandler) Leave(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		CustomerPhone string `json:"customer_phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	if err := h.queueService.Leave(ticketID, req.CustomerPhone); err != nil {
		respondServiceError(c, err, "Leave: failed to leave queue")
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove is the staff-side removal.
func (h *QueueHandler) Remove(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.queueService.Remove(ticketID); err != nil {
		respondServiceError(c, err, "Remove: failed to remove ticket")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *QueueHandler) Transfer(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	ticket, err := h.queueService.Transfer(ticketID, req)
	if err != nil {
		respondServiceError(c, err, "Transfer: failed to transfer ticket")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *QueueHandler) AddService(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		ServiceID int64 `json:"service_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	ticket, err := h.queueService.AddService(ticketID, req.ServiceID)
	if err != nil {
		respondServiceError(c, err, "AddService: failed to add service to cart")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (h *QueueHandler) RemoveService(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	serviceID, ok := parseIDParam(c, "serviceId")
	if !ok {
		return
	}

	ticket, err := h.queueService.RemoveService(ticketID, serviceID)
	if err != nil {
		respondServiceError(c, err, "RemoveService: failed to remove service from cart")
		return
	}
	c.JSON(http.StatusOK, ticket)
}
