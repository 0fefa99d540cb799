package csvimport

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/matreq/backend/internal/domain/shared"
	"github.com/matreq/backend/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected domain error, got %v", err)
	return domainErr.Code
}

func TestRowParser_CSV(t *testing.T) {
	csv := "equipment_id,material,material_qty,batch\n" +
		"10000001,MAT001,5,\n" +
		"10000002,MAT002,10,B7\n" +
		"10000003,MAT001,3,\n"

	rows, err := NewRowParser().Parse("rows.CSV", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, []trade.RawRow{
		{EquipmentID: "10000001", Material: "MAT001", Quantity: "5"},
		{EquipmentID: "10000002", Material: "MAT002", Quantity: "10", Batch: "B7"},
		{EquipmentID: "10000003", Material: "MAT001", Quantity: "3"},
	}, rows)
}

func TestRowParser_Errors(t *testing.T) {
	p := NewRowParser()

	t.Run("missing columns", func(t *testing.T) {
		_, err := p.Parse("rows.csv", strings.NewReader("Equipment ID,batch\n1,B"))
		assert.Equal(t, ErrCodeUploadMissingColumns, domainCode(t, err))
		assert.Contains(t, err.Error(), "material, material_qty")
	})

	t.Run("no data rows", func(t *testing.T) {
		_, err := p.Parse("rows.csv", strings.NewReader("equipment_id,material,material_qty\n"))
		assert.Equal(t, ErrCodeUploadNoDataRows, domainCode(t, err))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := p.Parse("rows.csv", strings.NewReader(""))
		assert.Equal(t, ErrCodeUploadEmptyFile, domainCode(t, err))
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := p.Parse("rows.pdf", strings.NewReader("x"))
		assert.Equal(t, ErrCodeUploadUnsupported, domainCode(t, err))
	})

	t.Run("corrupt workbook", func(t *testing.T) {
		_, err := p.Parse("rows.xlsx", strings.NewReader("not a zip"))
		assert.Equal(t, ErrCodeUploadInvalidFile, domainCode(t, err))
	})
}

func TestRowParser_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Equipment ID", "Material", "Material Qty", "Batch"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"10000001", "MAT001", 5, "NaN"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"", "", "", ""}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]any{"10000002", "MAT002", 2.5, "B1"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	rows, err := NewRowParser().Parse("upload.xlsx", &buf)
	require.NoError(t, err)

	assert.Equal(t, []trade.RawRow{
		{EquipmentID: "10000001", Material: "MAT001", Quantity: "5"},
		{EquipmentID: "10000002", Material: "MAT002", Quantity: "2.5", Batch: "B1"},
	}, rows)
}
