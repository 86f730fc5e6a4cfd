package app

import (
	"errors"
	"fmt"
	"net/http"

	"inkwell/api/internal/store"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

var (
	errUnauthorized     = domainError(http.StatusForbidden, "UNAUTHORIZED", "Unauthorized")
	errEndpointNotFound = domainError(http.StatusNotFound, "ENDPOINT_NOT_FOUND", "Endpoint not found")
	errMethodNotAllowed = domainError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	errInvalidInput     = domainError(http.StatusBadRequest, "INVALID_INPUT", "Invalid input")
	errServer           = domainError(http.StatusInternalServerError, "SERVER_ERROR", "Server error")
)

// mapError converts a store error into the response envelope for resource
// ("Post" or "Category"). Anything unrecognised is a server error.
func mapError(err error, resource string) *DomainError {
	var domainErr *DomainError
	switch {
	case errors.As(err, &domainErr):
		return domainErr
	case errors.Is(err, store.ErrNotFound):
		return domainError(http.StatusNotFound, "NOT_FOUND", resource+" not found")
	case errors.Is(err, store.ErrConflict):
		return domainError(http.StatusBadRequest, "CONFLICT", resource+" already exists")
	case errors.Is(err, store.ErrReservedCategory):
		return domainError(http.StatusBadRequest, "RESERVED", "Category name is reserved")
	case errors.Is(err, store.ErrInvalidInput):
		return errInvalidInput
	case errors.Is(err, store.ErrStoreCorrupt):
		return domainError(http.StatusInternalServerError, "STORE_CORRUPT", "Server error")
	default:
		return errServer
	}
}
