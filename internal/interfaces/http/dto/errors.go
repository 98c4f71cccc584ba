package dto

import "net/http"

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeValidation is used when request binding validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Resource errors
	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"DUPLICATE_CODE":       http.StatusConflict,
	"DUPLICATE_REQUEST":    http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Input errors -> 400 Bad Request
	"BAD_REQUEST":          http.StatusBadRequest,
	"VALIDATION_ERROR":     http.StatusBadRequest,
	"INVALID_INPUT":        http.StatusBadRequest,
	"INVALID_BATCH_CODE":   http.StatusBadRequest,
	"INVALID_BATCH_NAME":   http.StatusBadRequest,
	"INVALID_MATERIAL_KIND": http.StatusBadRequest,
	"INVALID_QUANTITY":     http.StatusBadRequest,
	"INVALID_COST":         http.StatusBadRequest,
	"INVALID_PRICE":        http.StatusBadRequest,
	"INVALID_THRESHOLD":    http.StatusBadRequest,
	"INVALID_SKU_CODE":     http.StatusBadRequest,
	"INVALID_SKU_NAME":     http.StatusBadRequest,
	"INVALID_STATUS":       http.StatusBadRequest,
	"INVALID_REASON":       http.StatusBadRequest,
	"INVALID_ACTION":       http.StatusBadRequest,
	"INVALID_BATCH":        http.StatusBadRequest,
	"INVALID_RECORD_KIND":  http.StatusBadRequest,
	"INVALID_SOURCE":       http.StatusBadRequest,

	// Business rule errors -> 422 Unprocessable Entity
	"INVALID_COMPOSITION":    http.StatusUnprocessableEntity,
	"INVALID_STATE":          http.StatusUnprocessableEntity,
	"SKU_NOT_SELLABLE":       http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK":     http.StatusUnprocessableEntity,
	"INSUFFICIENT_AVAILABLE": http.StatusUnprocessableEntity,

	// General errors
	"INTERNAL_ERROR": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
