package handlers

import (
	"net/http"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RequestHandler holds the request service plus the catalog service used to
// resolve the submitting barber.
type RequestHandler struct {
	requestService services.RequestService
	catalogService services.CatalogService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(rs services.RequestService, cs services.CatalogService) *RequestHandler {
	return &RequestHandler{requestService: rs, catalogService: cs}
}

// Submit files a queue request on behalf of a customer. Only barbers hit
// this route; the requester is resolved from the token.
func (h *RequestHandler) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	barber, err := h.catalogService.GetBarberByUserID(userID)
	if err != nil {
		respondServiceError(c, err, "Submit: failed to resolve barber for user")
		return
	}

	var req services.SubmitRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	request, err := h.requestService.Submit(req, barber.ID)
	if err != nil {
		respondServiceError(c, err, "Submit: failed to submit queue request")
		return
	}
	c.JSON(http.StatusCreated, request)
}

// requesterScope narrows reads for barbers to their own submissions. Admins
// get a nil scope and see everything.
func (h *RequestHandler) requesterScope(c *gin.Context) (*int64, bool) {
	if currentRole(c) != models.RoleBarber {
		return nil, true
	}
	userID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	barber, err := h.catalogService.GetBarberByUserID(userID)
	if err != nil {
		respondServiceError(c, err, "requesterScope: failed to resolve barber for user")
		return nil, false
	}
	return &barber.ID, true
}

func (h *RequestHandler) Get(c *gin.Context) {
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	scope, ok := h.requesterScope(c)
	if !ok {
		return
	}

	request, err := h.requestService.GetRequest(requestID)
	if err != nil {
		respondServiceError(c, err, "Get: failed to load queue request")
		return
	}
	if scope != nil && request.RequestedBy != *scope {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
			"Request was submitted by another barber.", ""))
		return
	}
	c.JSON(http.StatusOK, request)
}

// List returns requests, optionally filtered by ?status=pending. Barbers see
// only their own.
func (h *RequestHandler) List(c *gin.Context) {
	scope, ok := h.requesterScope(c)
	if !ok {
		return
	}
	requests, err := h.requestService.ListRequests(c.Query("status"), scope)
	if err != nil {
		respondServiceError(c, err, "List: failed to list queue requests")
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (h *RequestHandler) Approve(c *gin.Context) {
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.ProcessRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	request, err := h.requestService.Approve(requestID, userID, req)
	if err != nil {
		respondServiceError(c, err, "Approve: failed to approve queue request")
		return
	}
	c.JSON(http.StatusOK, request)
}

func (h *RequestHandler) Reject(c *gin.Context) {
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.ProcessRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	request, err := h.requestService.Reject(requestID, userID, req)
	if err != nil {
		respondServiceError(c, err, "Reject: failed to reject queue request")
		return
	}
	c.JSON(http.StatusOK, request)
}
