package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeGatewayUnavailable = "GATEWAY_UNAVAILABLE"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Request error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "RATE_LIMITED"
)

// Authentication and session error codes
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnknownEnvironment = "UNKNOWN_ENVIRONMENT"
	ErrCodeSessionNotFound    = "SESSION_NOT_FOUND"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
	ErrCodeInvalidEnvironment = "INVALID_ENVIRONMENT"
	ErrCodeInvalidUser        = "INVALID_USER"
	ErrCodeInvalidSecret      = "INVALID_SECRET"
)

// Row and order error codes
const (
	ErrCodeNoRowsSelected = "NO_ROWS_SELECTED"
	ErrCodeInvalidRows    = "INVALID_ROWS"
	ErrCodeInvalidSoldTo  = "INVALID_SOLD_TO"
	ErrCodeInvalidStatus  = "INVALID_STATUS"
)

// Upload error codes
const (
	ErrCodeFileRequired        = "FILE_REQUIRED"
	ErrCodeFileTooLarge        = "FILE_TOO_LARGE"
	ErrCodeInvalidFile         = "INVALID_FILE"
	ErrCodeEmptyFile           = "EMPTY_FILE"
	ErrCodeInvalidEncoding     = "INVALID_ENCODING"
	ErrCodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	ErrCodeMissingColumns      = "MISSING_COLUMNS"
	ErrCodeNoDataRows          = "NO_DATA_ROWS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeGatewayUnavailable: http.StatusBadGateway,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidRequest:  http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeSessionNotFound:    http.StatusUnauthorized,
	ErrCodeSessionExpired:     http.StatusUnauthorized,
	ErrCodeUnknownEnvironment: http.StatusBadRequest,
	ErrCodeInvalidEnvironment: http.StatusBadRequest,
	ErrCodeInvalidUser:        http.StatusBadRequest,
	ErrCodeInvalidSecret:      http.StatusBadRequest,

	ErrCodeNoRowsSelected: http.StatusBadRequest,
	ErrCodeInvalidRows:    http.StatusBadRequest,
	ErrCodeInvalidSoldTo:  http.StatusBadRequest,
	ErrCodeInvalidStatus:  http.StatusBadRequest,

	ErrCodeFileRequired:        http.StatusBadRequest,
	ErrCodeFileTooLarge:        http.StatusRequestEntityTooLarge,
	ErrCodeInvalidFile:         http.StatusBadRequest,
	ErrCodeEmptyFile:           http.StatusBadRequest,
	ErrCodeInvalidEncoding:     http.StatusBadRequest,
	ErrCodeUnsupportedFileType: http.StatusBadRequest,
	ErrCodeMissingColumns:      http.StatusBadRequest,
	ErrCodeNoDataRows:          http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
