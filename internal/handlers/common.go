package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"barbershop_backend/internal/middleware"
	"barbershop_backend/internal/models"
	"barbershop_backend/internal/services"
	"barbershop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// parseIDParam reads a positive int64 path parameter or responds 400.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed,
			"Invalid "+name+" parameter.", c.Param(name)))
		return 0, false
	}
	return id, true
}

// currentUserID returns the authenticated user's ID set by the auth
// middleware.
func currentUserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(middleware.CtxUserID)
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"User not authenticated.", ""))
		return 0, false
	}
	userID, ok := value.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
			"Invalid user context.", ""))
		return 0, false
	}
	return userID, true
}

// currentRole returns the authenticated role, defaulting to customer when the
// route allows anonymous access.
func currentRole(c *gin.Context) string {
	value, exists := c.Get(middleware.CtxUserRole)
	if !exists {
		return models.RoleCustomer
	}
	role, _ := value.(string)
	return role
}

// respondServiceError maps the service error taxonomy onto HTTP responses.
// Handlers call it after their errors.Is checks for operation-specific cases,
// or directly when the default mapping is enough.
func respondServiceError(c *gin.Context, err error, logContext string) {
	utils.LogError(err, logContext)

	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), ""))
	case errors.Is(err, services.ErrForbidden):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, err.Error(), ""))
	case errors.Is(err, services.ErrTicketNotFound),
		errors.Is(err, services.ErrServiceNotFound),
		errors.Is(err, services.ErrBarberNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrRecordNotFound),
		errors.Is(err, services.ErrUserNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), ""))
	case errors.Is(err, services.ErrQueueClosed):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeQueueClosed, err.Error(), ""))
	case errors.Is(err, services.ErrCapacityExceeded):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeCapacityExceeded, err.Error(), ""))
	case errors.Is(err, services.ErrDuplicateActiveTicket):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeDuplicateTicket, err.Error(), ""))
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidTransition, err.Error(), ""))
	case errors.Is(err, services.ErrRequestNotPending):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
	case errors.Is(err, services.ErrEmptyCart):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeEmptyCart, err.Error(), ""))
	case errors.Is(err, services.ErrBarberRequired):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeBarberRequired, err.Error(), ""))
	case errors.Is(err, services.ErrGroupJoinFailed):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeGroupJoinFailed, err.Error(), ""))
	case errors.Is(err, services.ErrServiceInUse):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
	case errors.Is(err, services.ErrDuplicateUser):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), ""))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), ""))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError,
			"Internal server error.", ""))
	}
}
