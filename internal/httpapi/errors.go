package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MarkoPoloResearchLab/moneyflow/pkg/finance"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	errorCodeInvalidRequest  = "invalid_request"
	errorCodeNotFound        = "not_found"
	errorCodeConflict        = "conflict"
	errorCodeUnauthorized    = "unauthorized"
	errorCodeNotConfigured   = "not_configured"
	errorCodePayloadTooLarge = "payload_too_large"
	errorCodeUnavailable     = "unavailable"
	errorCodeInternal        = "internal_error"

	messageTransactionNotFound = "Transaction not found"
	messageCategoryNotFound    = "Category not found"
	messageTemplateNotFound    = "Recurring expense not found"
	messageInvalidAPIKey       = "Invalid API key"
	messageDateRange           = "from must be <= to"
	messageDayOfMonthMismatch  = "dayOfMonth must match day(date)"
	messagePayloadTooLarge     = "request body too large"
	messageInvalidJSON         = "expected JSON body"
	messageInternal            = "internal server error"
)

var validationSentinels = []error{
	finance.ErrInvalidDate,
	finance.ErrInvalidMonth,
	finance.ErrInvalidDayOfMonth,
	finance.ErrInvalidAmount,
	finance.ErrInvalidUTCOffset,
	finance.ErrInvalidCategoryID,
	finance.ErrInvalidCategoryName,
	finance.ErrInvalidCategoryType,
	finance.ErrInvalidCategoryColor,
	finance.ErrInvalidTemplateID,
	finance.ErrInvalidTransactionID,
	finance.ErrInvalidIdempotencyKey,
	finance.ErrInvalidSource,
	finance.ErrInvalidDescription,
	finance.ErrInvalidPagination,
	finance.ErrEmptyImport,
}

// httpError is a status plus the body rendered by errorResponse.
type httpError struct {
	status  int
	code    string
	message string
}

func mapToHTTPError(source error) httpError {
	var maxBytesError *http.MaxBytesError
	if errors.As(source, &maxBytesError) {
		return httpError{status: http.StatusRequestEntityTooLarge, code: errorCodePayloadTooLarge, message: messagePayloadTooLarge}
	}
	var validationErrors validator.ValidationErrors
	if errors.As(source, &validationErrors) {
		return httpError{status: http.StatusBadRequest, code: errorCodeInvalidRequest, message: describeValidationErrors(validationErrors)}
	}
	if errors.Is(source, finance.ErrUnknownTransaction) {
		return httpError{status: http.StatusNotFound, code: errorCodeNotFound, message: messageTransactionNotFound}
	}
	if errors.Is(source, finance.ErrUnknownCategory) {
		return httpError{status: http.StatusNotFound, code: errorCodeNotFound, message: messageCategoryNotFound}
	}
	if errors.Is(source, finance.ErrUnknownTemplate) {
		return httpError{status: http.StatusNotFound, code: errorCodeNotFound, message: messageTemplateNotFound}
	}
	if errors.Is(source, finance.ErrInvalidDateRange) {
		return httpError{status: http.StatusBadRequest, code: errorCodeInvalidRequest, message: messageDateRange}
	}
	if errors.Is(source, finance.ErrDayOfMonthMismatch) {
		return httpError{status: http.StatusBadRequest, code: errorCodeInvalidRequest, message: messageDayOfMonthMismatch}
	}
	if errors.Is(source, finance.ErrDuplicateIdempotencyKey) {
		return httpError{status: http.StatusConflict, code: errorCodeConflict, message: source.Error()}
	}
	for _, sentinel := range validationSentinels {
		if errors.Is(source, sentinel) {
			return httpError{status: http.StatusBadRequest, code: errorCodeInvalidRequest, message: source.Error()}
		}
	}
	return httpError{status: http.StatusInternalServerError, code: errorCodeInternal, message: messageInternal}
}

func describeValidationErrors(validationErrors validator.ValidationErrors) string {
	messages := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		messages = append(messages, describeFieldError(fieldError))
	}
	return strings.Join(messages, "; ")
}

func describeFieldError(fieldError validator.FieldError) string {
	field := fieldError.Field()
	switch fieldError.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "uuid":
		return fmt.Sprintf("%s must be a UUID", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fieldError.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fieldError.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fieldError.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fieldError.Tag())
	}
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// respondError renders err and logs anything that maps to a server error.
func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	mapped := mapToHTTPError(err)
	if mapped.status >= http.StatusInternalServerError {
		handler.logger.Error("request failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Error(err),
		)
	}
	ctx.AbortWithStatusJSON(mapped.status, errorResponse(mapped.code, mapped.message))
}

// respondBindError renders a request decoding failure.
func (handler *httpHandler) respondBindError(ctx *gin.Context, err error) {
	mapped := mapToHTTPError(err)
	if mapped.status == http.StatusInternalServerError {
		mapped = httpError{status: http.StatusBadRequest, code: errorCodeInvalidRequest, message: messageInvalidJSON}
	}
	ctx.AbortWithStatusJSON(mapped.status, errorResponse(mapped.code, mapped.message))
}

// respondCategoryReferenceError renders a missing category as a bad request instead of a missing resource.
func (handler *httpHandler) respondCategoryReferenceError(ctx *gin.Context, err error) {
	if errors.Is(err, finance.ErrUnknownCategory) {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, errorResponse(errorCodeInvalidRequest, messageCategoryNotFound))
		return
	}
	handler.respondError(ctx, err)
}
