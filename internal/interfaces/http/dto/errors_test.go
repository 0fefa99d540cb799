package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/matreq/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeGatewayUnavailable, http.StatusBadGateway},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeSessionNotFound, http.StatusUnauthorized},
		{ErrCodeSessionExpired, http.StatusUnauthorized},
		{ErrCodeUnknownEnvironment, http.StatusBadRequest},
		{ErrCodeNoRowsSelected, http.StatusBadRequest},
		{ErrCodeMissingColumns, http.StatusBadRequest},
		{ErrCodeFileTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestGetHTTPStatus_SharedErrors(t *testing.T) {
	for _, err := range []*shared.DomainError{shared.ErrNotFound, shared.ErrNoRowsSelected} {
		t.Run(err.Code, func(t *testing.T) {
			_, mapped := ErrorCodeHTTPStatus[err.Code]
			assert.True(t, mapped)
			assert.Less(t, GetHTTPStatus(err.Code), http.StatusInternalServerError)
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeInvalidCredentials, "Invalid credentials", "req-1")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidCredentials, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"INVALID_CREDENTIALS","message":"Invalid credentials","request_id":"req-1"}}`, string(body))
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{
		{Field: "user", Message: "This field is required"},
	})

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "user", resp.Error.Details[0].Field)

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "request_id")
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(41), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	empty := NewSuccessResponseWithMeta(nil, 0, 1, 0)
	assert.Equal(t, 0, empty.Meta.TotalPages)
}
