package services

import "errors"

// Sentinel errors the handlers translate into HTTP responses. Services wrap
// these with context via fmt.Errorf("%w: ...") so errors.Is keeps matching.
var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("operation not permitted for this role")

	ErrTicketNotFound  = errors.New("ticket not found")
	ErrServiceNotFound = errors.New("service not found or inactive")
	ErrBarberNotFound  = errors.New("barber not found")
	ErrRequestNotFound = errors.New("queue request not found")
	ErrRecordNotFound  = errors.New("attendance record not found")
	ErrUserNotFound    = errors.New("user not found")

	ErrQueueClosed           = errors.New("queue is closed")
	ErrCapacityExceeded      = errors.New("queue is at capacity")
	ErrDuplicateActiveTicket = errors.New("customer already has an active ticket")
	ErrEmptyCart             = errors.New("ticket cart cannot be empty")
	ErrInvalidTransition     = errors.New("invalid ticket status transition")
	ErrBarberRequired        = errors.New("an available barber is required")
	ErrGroupJoinFailed       = errors.New("group join failed")
	ErrRequestNotPending     = errors.New("queue request already processed")
	ErrDuplicateUser         = errors.New("username or email already taken")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrServiceInUse          = errors.New("service is referenced by history")
)
