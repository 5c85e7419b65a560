package handlers

import (
	"net/http"

	"barbershop_backend/internal/models"
	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler holds the catalog service.
type CatalogHandler struct {
	catalogService services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs}
}

// --- Services ---

func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req services.CreateServiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	service, err := h.catalogService.CreateService(req)
	if err != nil {
		respondServiceError(c, err, "CreateService: failed to create service")
		return
	}
	c.JSON(http.StatusCreated, service)
}

func (h *CatalogHandler) GetService(c *gin.Context) {
	serviceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	service, err := h.catalogService.GetService(serviceID)
	if err != nil {
		respondServiceError(c, err, "GetService: failed to load service")
		return
	}
	c.JSON(http.StatusOK, service)
}

// ListServices returns the catalog. Customers see only active entries;
// ?include_inactive=true widens the list for staff screens.
func (h *CatalogHandler) ListServices(c *gin.Context) {
	activeOnly := c.Query("include_inactive") != "true"
	list, err := h.catalogService.ListServices(activeOnly)
	if err != nil {
		respondServiceError(c, err, "ListServices: failed to list services")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) UpdateService(c *gin.Context) {
	serviceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateServiceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	service, err := h.catalogService.UpdateService(serviceID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateService: failed to update service")
		return
	}
	c.JSON(http.StatusOK, service)
}

func (h *CatalogHandler) DeleteService(c *gin.Context) {
	serviceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteService(serviceID); err != nil {
		respondServiceError(c, err, "DeleteService: failed to delete service")
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Barbers ---

func (h *CatalogHandler) CreateBarber(c *gin.Context) {
	var req services.CreateBarberInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	barber, err := h.catalogService.CreateBarber(req)
	if err != nil {
		respondServiceError(c, err, "CreateBarber: failed to create barber")
		return
	}
	c.JSON(http.StatusCreated, barber)
}

func (h *CatalogHandler) GetBarber(c *gin.Context) {
	barberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	barber, err := h.catalogService.GetBarber(barberID)
	if err != nil {
		respondServiceError(c, err, "GetBarber: failed to load barber")
		return
	}
	c.JSON(http.StatusOK, barber)
}

func (h *CatalogHandler) ListBarbers(c *gin.Context) {
	includeOffline := c.Query("include_offline") == "true"
	list, err := h.catalogService.ListBarbers(includeOffline)
	if err != nil {
		respondServiceError(c, err, "ListBarbers: failed to list barbers")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) UpdateBarber(c *gin.Context) {
	barberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateBarberInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	barber, err := h.catalogService.UpdateBarber(barberID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateBarber: failed to update barber")
		return
	}
	c.JSON(http.StatusOK, barber)
}

// SetBarberStatus flips a barber's presence. Barbers may set their own;
// admins may set anyone's.
func (h *CatalogHandler) SetBarberStatus(c *gin.Context) {
	barberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if currentRole(c) == models.RoleBarber {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		own, err := h.catalogService.GetBarberByUserID(userID)
		if err != nil {
			respondServiceError(c, err, "SetBarberStatus: failed to resolve barber for user")
			return
		}
		if own.ID != barberID {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
				"Barbers may only update their own status.", ""))
			return
		}
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	barber, err := h.catalogService.SetBarberStatus(barberID, req.Status)
	if err != nil {
		respondServiceError(c, err, "SetBarberStatus: failed to update status")
		return
	}
	c.JSON(http.StatusOK, barber)
}

func (h *CatalogHandler) SetCommission(c *gin.Context) {
	barberID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		CommissionPercentage float64 `json:"commission_percentage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	barber, err := h.catalogService.SetCommission(barberID, req.CommissionPercentage)
	if err != nil {
		respondServiceError(c, err, "SetCommission: failed to update commission")
		return
	}
	c.JSON(http.StatusOK, barber)
}
