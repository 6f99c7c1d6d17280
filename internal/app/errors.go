package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"pantrywall/internal/names"
	"pantrywall/internal/pantry"
	"pantrywall/internal/session"
	"pantrywall/internal/share"
	"pantrywall/internal/wall"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

var (
	errNotConfigured   = domainError(http.StatusConflict, "NOT_CONFIGURED", "No pantry configured for this tab", nil)
	errJournalDisabled = domainError(http.StatusServiceUnavailable, "JOURNAL_DISABLED", "Activity journal is not configured", nil)
)

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, names.ErrEmpty) || errors.Is(err, names.ErrTooLong) || errors.Is(err, names.ErrReservedChars) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), map[string]any{"field": "name"}
	}
	if errors.Is(err, session.ErrIncompleteRef) {
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), map[string]any{"field": "pid,key"}
	}
	if errors.Is(err, share.ErrNoBucket) {
		return errNotConfigured.Status, errNotConfigured.Code, errNotConfigured.Message, nil
	}
	if errors.Is(err, wall.ErrBucketChanged) || errors.Is(err, wall.ErrClosed) {
		return http.StatusConflict, "BUCKET_CHANGED", "The tab switched pantry while loading; refresh again", nil
	}
	var statusErr *pantry.StatusError
	if errors.As(err, &statusErr) {
		return http.StatusBadGateway, "REMOTE_ERROR", statusErr.Error(), map[string]any{
			"method": statusErr.Method,
			"status": statusErr.StatusCode,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "REMOTE_TIMEOUT", "Pantry did not answer in time", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
