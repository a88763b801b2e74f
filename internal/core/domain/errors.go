package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrPermission   = errors.New("permission denied")
	ErrStore        = errors.New("store failure")
)

// TransitionError reports an order event that the current status does not allow.
type TransitionError struct {
	OrderID string
	From    OrderStatus
	Event   OrderEvent
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: cannot %s from %s", e.OrderID, e.Event, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidState
}
