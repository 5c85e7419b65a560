package handlers

import (
	"net/http"

	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SettingsHandler holds the settings service.
type SettingsHandler struct {
	settingsService services.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(ss services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: ss}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settingsService.GetSettings()
	if err != nil {
		respondServiceError(c, err, "Get: failed to load queue settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req services.UpdateSettingsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	settings, err := h.settingsService.UpdateSettings(req)
	if err != nil {
		respondServiceError(c, err, "Update: failed to update queue settings")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SetActive opens or closes the queue gate without touching hours or
// capacity.
func (h *SettingsHandler) SetActive(c *gin.Context) {
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	settings, err := h.settingsService.SetActive(*req.Active)
	if err != nil {
		respondServiceError(c, err, "SetActive: failed to toggle queue")
		return
	}
	c.JSON(http.StatusOK, settings)
}
