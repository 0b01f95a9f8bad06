package apperrors

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"net"

	"github.com/pkg/errors"
	"microloan-backend/models"
)

var (
	ErrNotApproved = errors.New("approval request is not approved")
	ErrWrongType   = errors.New("approval request is not a loan application")
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
)

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func NewValidation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type InvalidTransitionError struct {
	From models.RequestStatus
	To   models.RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("status transition from %s to %s is not allowed", e.From, e.To)
}

// RoleOperationDeniedError carries the role policy reason verbatim
type RoleOperationDeniedError struct {
	Reason string
}

func (e *RoleOperationDeniedError) Error() string {
	return e.Reason
}

// AlreadyProcessedError is returned when the request already references a loan
type AlreadyProcessedError struct {
	LoanID string
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("approval request already processed, loan %s", e.LoanID)
}

// TransientStoreError means the store call failed without an outcome being applied
// and may be retried.
type TransientStoreError struct {
	Err error
}

func (e *TransientStoreError) Error() string {
	return "store temporarily unavailable: " + e.Err.Error()
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

func FromStore(err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return &TransientStoreError{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &TransientStoreError{Err: err}
	}
	return err
}

func IsTransient(err error) bool {
	var transient *TransientStoreError
	return errors.As(err, &transient)
}

func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

func AsAlreadyProcessed(err error) (*AlreadyProcessedError, bool) {
	var processed *AlreadyProcessedError
	if errors.As(err, &processed) {
		return processed, true
	}
	return nil, false
}
