package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFEquipment ID,Material\n1,M"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, "equipment_id", parser.Headers()[0])
	})

	t.Run("UTF-16 with BOM is decoded", func(t *testing.T) {
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		content, err := enc.String("Equipment ID\tMaterial\n10000001\tMAT-100\n")
		require.NoError(t, err)

		parser, err := NewCSVParser(strings.NewReader(content), WithDelimiter('\t'))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"equipment_id", "material"}, parser.Headers())

		rows, err := parser.ReadAllRows()
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "MAT-100", rows[0].Get("material"))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("equipment_id\n\xff\xfe\xfd"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("a;b\n1;2"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"a", "b"}, parser.Headers())
	})
}

func TestCSVParser_ReadAllRows(t *testing.T) {
	csv := "Equipment ID, Material ,MATERIAL QTY,Batch\n" +
		"10000001,MAT001,5,B1\n" +
		",,,\n" +
		"10000002,MAT002,NaN\n"

	parser, err := NewCSVParser(strings.NewReader(csv))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())
	assert.True(t, parser.HasHeader("material_qty"))

	rows, err := parser.ReadAllRows()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].LineNumber)
	assert.Equal(t, "B1", rows[0].Get("batch"))
	assert.Equal(t, 4, rows[1].LineNumber)
	assert.Equal(t, "", rows[1].Get("material_qty"))
	assert.Equal(t, "", rows[1].Get("batch"))

	_, err = parser.ReadRow()
	assert.Equal(t, io.EOF, err)
}

func TestCSVParser_MissingHeader(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("\n"))
	if err != nil {
		assert.ErrorIs(t, err, ErrEmptyFile)
		return
	}
	assert.ErrorIs(t, parser.ParseHeader(), ErrMissingHeader)
}

func TestNormalizeHeader(t *testing.T) {
	tests := map[string]string{
		"Equipment ID":    "equipment_id",
		"  material_qty ": "material_qty",
		"Material  Qty":   "material_qty",
		"BATCH":           "batch",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHeader(in), in)
	}
}

func TestCleanCell(t *testing.T) {
	assert.Equal(t, "", CleanCell("NaN"))
	assert.Equal(t, "", CleanCell(" #N/A "))
	assert.Equal(t, "5", CleanCell(" 5 "))
}
