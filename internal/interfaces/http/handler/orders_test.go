package handler

import (
	"errors"
	"net/http"
	"testing"

	tradeapp "github.com/matreq/backend/internal/application/trade"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/matreq/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadRows(t *testing.T, srv *testServer, token string) []tradeapp.RowDTO {
	t.Helper()
	w := srv.upload(t, token, "rows.csv", uploadCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp tradeapp.UploadResponse
	decodeData(t, w, &resp)
	return resp.Rows
}

func TestOrderHandler_Create(t *testing.T) {
	srv := newTestServer(t, 0)
	token := srv.login(t)
	rows := uploadRows(t, srv, token)

	w := srv.do(t, http.MethodPost, "/api/v1/orders", token, CreateOrdersRequest{Rows: rows})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp tradeapp.CreateOrdersResponse
	decodeData(t, w, &resp)
	assert.Equal(t, 1, resp.OrdersCreated)
	assert.Equal(t, 0, resp.OrdersFailed)
	assert.Equal(t, 1, resp.GroupsProcessed)
	require.Len(t, resp.Rows, 3)

	created := resp.Rows[0]
	assert.Equal(t, string(trade.RowStatusCreated), created.Status)
	assert.NotEmpty(t, created.DocumentNumber)
	assert.Len(t, srv.sandbox.Orders(), 1)

	// rows that were not eligible are returned unchanged
	assert.Equal(t, rows[1].Status, resp.Rows[1].Status)
	assert.Empty(t, resp.Rows[1].DocumentNumber)

	t.Run("resubmitting created rows creates nothing", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/orders", token, CreateOrdersRequest{Rows: resp.Rows})
		require.Equal(t, http.StatusOK, w.Code)

		var again tradeapp.CreateOrdersResponse
		decodeData(t, w, &again)
		assert.Equal(t, 0, again.GroupsProcessed)
		assert.Equal(t, created.DocumentNumber, again.Rows[0].DocumentNumber)
		assert.Len(t, srv.sandbox.Orders(), 1)
	})
}

func TestOrderHandler_CreateFailure(t *testing.T) {
	srv := newTestServer(t, 0)
	token := srv.login(t)
	rows := uploadRows(t, srv, token)
	srv.sandbox.FailCreate(errors.New("Material MAT-100 is blocked"))

	w := srv.do(t, http.MethodPost, "/api/v1/orders", token, CreateOrdersRequest{Rows: rows})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp tradeapp.CreateOrdersResponse
	decodeData(t, w, &resp)
	assert.Equal(t, 0, resp.OrdersCreated)
	assert.Equal(t, 1, resp.OrdersFailed)
	assert.Contains(t, resp.Rows[0].Status, "ErrorCreate:")
}

func TestOrderHandler_CreateRejected(t *testing.T) {
	srv := newTestServer(t, 0)
	token := srv.login(t)

	t.Run("no rows", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/orders", token, CreateOrdersRequest{Rows: []tradeapp.RowDTO{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeNoRowsSelected, errorCode(t, w))
	})

	t.Run("invalid row number", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/orders", token, `{"rows":[{"rowNumber":0}]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeData(t, w, nil)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "rows[0].rowNumber", resp.Error.Details[0].Field)
	})

	t.Run("duplicate row numbers", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/orders", token, `{"rows":[{"rowNumber":1},{"rowNumber":1}]}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidRows, errorCode(t, w))
	})

	t.Run("without session", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/orders", "", CreateOrdersRequest{})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
