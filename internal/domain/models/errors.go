package models

import (
	"errors"
	"fmt"
)

// ErrInsufficientData signals fewer than the required prior records
// for a forecast window. Recoverable: surfaced to the user as
// "forecast unavailable", never retried and never fatal.
var ErrInsufficientData = errors.New("insufficient history for forecast window")

// ErrNoData signals an empty query result for a requested day.
var ErrNoData = errors.New("no rows for requested date")

// ModelError indicates a feature/scaler/model mismatch. Logged in
// full, surfaced to users as a generic failure message.
type ModelError struct {
	Store  Store
	Reason string
	Err    error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model %s: %s: %v", e.Store, e.Reason, e.Err)
	}
	return fmt.Sprintf("model %s: %s", e.Store, e.Reason)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError builds a ModelError for a store.
func NewModelError(store Store, reason string) *ModelError {
	return &ModelError{Store: store, Reason: reason}
}
