package utils

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIError is the standardized JSON error response body.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

// NewAPIError creates a new APIError instance.
func NewAPIError(statusCode int, code string, message string, details string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// RespondWithError sends a standardized JSON error response and aborts the request.
func RespondWithError(c *gin.Context, err *APIError) {
	c.JSON(err.StatusCode, gin.H{"error": err})
	c.Abort()
}

// Application error codes carried in API error responses.
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeQueueClosed         = "QUEUE_CLOSED"
	ErrCodeDuplicateTicket     = "DUPLICATE_ACTIVE_TICKET"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeInvalidTransition   = "INVALID_TRANSITION"
	ErrCodeBarberRequired      = "BARBER_REQUIRED"
	ErrCodeGroupJoinFailed     = "GROUP_JOIN_FAILED"
	ErrCodeCapacityExceeded    = "CAPACITY_EXCEEDED"
)

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)

// IsValidEmail checks if a string is a valid email format.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.ToLower(email))
}

var phoneDigitsRegex = regexp.MustCompile(`\D`)

// NormalizePhone strips everything but digits so the same contact written
// with different punctuation compares equal in the duplicate-ticket check.
func NormalizePhone(phone string) string {
	return phoneDigitsRegex.ReplaceAllString(phone, "")
}
