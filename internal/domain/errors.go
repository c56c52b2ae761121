package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidAction      = errors.New("invalid action")
	ErrAlreadyReviewed    = errors.New("flag already reviewed")
	ErrValidation         = errors.New("validation error")
	ErrStore              = errors.New("store error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBanned             = errors.New("account banned")
	ErrSuspended          = errors.New("account suspended")
)

// StoreErr tags a persistence failure so callers can match ErrStore while
// the driver error stays reachable through errors.Is/As.
func StoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
