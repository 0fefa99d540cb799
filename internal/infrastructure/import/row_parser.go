package csvimport

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/matreq/backend/internal/domain/trade"
)

// Column names after header normalization
const (
	ColumnEquipmentID = "equipment_id"
	ColumnMaterial    = "material"
	ColumnQuantity    = "material_qty"
	ColumnBatch       = "batch"
)

// RequiredColumns must be present in every upload
var RequiredColumns = []string{ColumnEquipmentID, ColumnMaterial, ColumnQuantity}

// RowParser reads equipment rows from CSV or XLSX uploads
type RowParser struct {
	opts []ParserOption
}

// NewRowParser creates a RowParser. The options apply to CSV files.
func NewRowParser(opts ...ParserOption) *RowParser {
	return &RowParser{opts: opts}
}

// Parse picks the format from the file extension and returns the rows in
// file order. Errors are domain errors suitable for the client.
func (p *RowParser) Parse(filename string, r io.Reader) ([]trade.RawRow, error) {
	var (
		headers []string
		rows    []*Row
		err     error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		headers, rows, err = p.readCSV(r)
	case ".xlsx", ".xlsm":
		headers, rows, err = ReadSpreadsheet(r)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return nil, ToDomainError(err)
	}

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	if missing := ValidateHeaders(func(h string) bool { return present[h] }, RequiredColumns); len(missing) > 0 {
		return nil, ToDomainError(&MissingColumnsError{Columns: missing})
	}
	if len(rows) == 0 {
		return nil, ToDomainError(ErrNoDataRows)
	}

	out := make([]trade.RawRow, len(rows))
	for i, row := range rows {
		out[i] = trade.RawRow{
			EquipmentID: row.Get(ColumnEquipmentID),
			Material:    row.Get(ColumnMaterial),
			Quantity:    row.Get(ColumnQuantity),
			Batch:       row.Get(ColumnBatch),
		}
	}
	return out, nil
}

func (p *RowParser) readCSV(r io.Reader) ([]string, []*Row, error) {
	parser, err := NewCSVParser(r, p.opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, nil, err
	}
	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, nil, err
	}
	return parser.Headers(), rows, nil
}
