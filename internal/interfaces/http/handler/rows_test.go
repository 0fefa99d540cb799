package handler

import (
	"net/http"
	"strings"
	"testing"

	tradeapp "github.com/matreq/backend/internal/application/trade"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/matreq/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uploadCSV = "Equipment ID,Material,Material Qty,Batch\n" +
	"10000001,MAT-100,5,\n" +
	"99999999,MAT-200,1,B7\n" +
	"10000002,MAT-300,NaN,\n"

func TestRowHandler_Upload(t *testing.T) {
	srv := newTestServer(t, 0)
	token := srv.login(t)

	t.Run("enriches rows", func(t *testing.T) {
		w := srv.upload(t, token, "rows.csv", uploadCSV)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp tradeapp.UploadResponse
		decodeData(t, w, &resp)
		require.Equal(t, 3, resp.Total)
		require.Len(t, resp.Rows, 3)

		first := resp.Rows[0]
		assert.Equal(t, 1, first.RowNumber)
		assert.Equal(t, string(trade.RowStatusEnriched), first.Status)
		assert.Equal(t, "US01", first.Plant)
		assert.Equal(t, "US01", first.SalesOrg)
		assert.Equal(t, "4711", first.CostCenter)
		assert.Equal(t, "Z01", first.OrderReason)

		assert.Equal(t, string(trade.EnrichmentFailed(trade.DetailEquipmentNotFound)), resp.Rows[1].Status)
		assert.Equal(t, string(trade.EnrichmentFailed(trade.DetailMissingField)), resp.Rows[2].Status)
	})

	t.Run("missing columns", func(t *testing.T) {
		w := srv.upload(t, token, "rows.csv", "Equipment ID,Batch\n10000001,B1\n")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeMissingColumns, errorCode(t, w))
	})

	t.Run("no file", func(t *testing.T) {
		w := srv.upload(t, token, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeFileRequired, errorCode(t, w))
	})

	t.Run("without session", func(t *testing.T) {
		w := srv.upload(t, "", "rows.csv", uploadCSV)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRowHandler_UploadTooLarge(t *testing.T) {
	srv := newTestServer(t, 32)
	token := srv.login(t)

	w := srv.upload(t, token, "rows.csv", uploadCSV+strings.Repeat("10000001,MAT-100,5,\n", 4))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, dto.ErrCodeFileTooLarge, errorCode(t, w))
}
