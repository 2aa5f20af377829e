package services

import (
	"errors"
	"fmt"

	"salonbook-backend/models"
)

// Booking rejection kinds. They reach the caller wrapped in *BookingError and
// are never retried.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrOutsideBusinessHours = errors.New("outside business hours")
	ErrBlockedPeriod        = errors.New("blocked period")
	ErrConflict             = errors.New("slot conflicts with an existing appointment")
)

var ErrNotFound = errors.New("not found")

// BookingError rejects a slot with one of the booking kinds above.
type BookingError struct {
	Kind   error
	Detail string
}

func (e *BookingError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *BookingError) Unwrap() error { return e.Kind }

// Reason is the stable machine-readable code for the rejection.
func (e *BookingError) Reason() string {
	switch e.Kind {
	case ErrInvalidRequest:
		return "invalid_request"
	case ErrOutsideBusinessHours:
		return "outside_business_hours"
	case ErrBlockedPeriod:
		return "blocked_period"
	case ErrConflict:
		return "conflict"
	}
	return "rejected"
}

func rejectf(kind error, format string, args ...any) error {
	return &BookingError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// InvalidStateTransitionError is returned for a lifecycle move the current
// status does not allow.
type InvalidStateTransitionError struct {
	From models.AppointmentStatus
	To   models.AppointmentStatus
	// Action names operations that keep the status, such as "reschedule".
	Action string
}

func (e *InvalidStateTransitionError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("cannot %s appointment in status %s", e.Action, e.From)
	}
	return fmt.Sprintf("cannot move appointment from %s to %s", e.From, e.To)
}

// GatewayDeliveryError is a failed send on one channel. The scheduler records
// and logs it; it never reaches the booking caller.
type GatewayDeliveryError struct {
	Channel   models.Channel
	Recipient string
	Err       error
}

func (e *GatewayDeliveryError) Error() string {
	return fmt.Sprintf("deliver %s reminder to %s: %v", e.Channel, e.Recipient, e.Err)
}

func (e *GatewayDeliveryError) Unwrap() error { return e.Err }
