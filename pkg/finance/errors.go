package finance

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the finance services.
var (
	ErrInvalidDate           = errors.New("invalid date")
	ErrInvalidMonth          = errors.New("invalid month")
	ErrInvalidDayOfMonth     = errors.New("invalid day of month")
	ErrDayOfMonthMismatch    = errors.New("day of month must match day of anchor date")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidUTCOffset      = errors.New("invalid utc offset")
	ErrInvalidCategoryID     = errors.New("invalid category id")
	ErrInvalidCategoryName   = errors.New("invalid category name")
	ErrInvalidCategoryType   = errors.New("invalid category type")
	ErrInvalidCategoryColor  = errors.New("invalid category color")
	ErrInvalidTemplateID     = errors.New("invalid template id")
	ErrInvalidTransactionID  = errors.New("invalid transaction id")
	ErrInvalidIdempotencyKey = errors.New("invalid idempotency key")
	ErrInvalidSource         = errors.New("invalid source")
	ErrInvalidDescription    = errors.New("invalid description")
	ErrInvalidDateRange      = errors.New("invalid date range")
	ErrInvalidPagination     = errors.New("invalid pagination")
	ErrEmptyImport           = errors.New("empty import")
	ErrInvalidLockName       = errors.New("invalid lock name")
	ErrInvalidLockTTL        = errors.New("invalid lock ttl")
	ErrInvalidServiceConfig  = errors.New("invalid service config")

	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownTemplate    = errors.New("unknown recurring template")
	ErrUnknownTransaction = errors.New("unknown transaction")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
