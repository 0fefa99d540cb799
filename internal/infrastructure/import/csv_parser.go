// Package csvimport reads uploaded equipment rows from CSV and XLSX files.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVParser reads a CSV file with a header row
type CSVParser struct {
	delimiter  rune
	headers    []string
	headerMap  map[string]int
	currentRow int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// NewCSVParser creates a new CSV parser from a reader
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		delimiter: ',',
		headerMap: make(map[string]int),
	}
	for _, opt := range opts {
		opt(parser)
	}

	// A leading BOM selects UTF-8 or UTF-16 and is dropped. Files without
	// one pass through unchanged and must be UTF-8.
	decoded := transform.NewReader(r, unicode.BOMOverride(encoding.Nop.NewDecoder()))
	parser.bufReader = bufio.NewReader(decoded)

	if err := validateUTF8(parser.bufReader); err != nil {
		return nil, err
	}

	parser.reader = csv.NewReader(parser.bufReader)
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = true
	parser.reader.TrimLeadingSpace = true
	parser.reader.FieldsPerRecord = -1

	return parser, nil
}

func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	// A multi-byte rune may be cut at the peek boundary
	for i := 0; i < utf8.UTFMax && len(content) == checkSize && !utf8.Valid(content); i++ {
		content = content[:len(content)-1]
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader reads the header row and normalizes its names
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = NormalizeHeaders(record)
	for i, h := range p.headers {
		if _, dup := p.headerMap[h]; !dup {
			p.headerMap[h] = i
		}
	}
	if len(p.headers) == 0 {
		return ErrMissingHeader
	}
	p.currentRow = 1
	return nil
}

// Headers returns the normalized header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader checks if a normalized header exists
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerMap[name]
	return ok
}

// ReadRow reads the next row. It returns io.EOF at the end of the file.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}
	return newRow(p.currentRow, p.headerMap, record), nil
}

// ReadAllRows reads all remaining rows, skipping empty ones
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
}

// Row is one parsed data row keyed by normalized header
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

func newRow(line int, headerMap map[string]int, record []string) *Row {
	row := &Row{LineNumber: line, Data: make(map[string]string, len(headerMap))}
	for h, i := range headerMap {
		value := ""
		if i < len(record) {
			value = CleanCell(record[i])
		}
		row.Data[h] = value
	}
	return row
}

// NormalizeHeader lower-cases a header and replaces spaces with underscores
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), "_")
}

// NormalizeHeaders normalizes a header row
func NormalizeHeaders(record []string) []string {
	out := make([]string, len(record))
	for i, h := range record {
		out[i] = NormalizeHeader(h)
	}
	return out
}

// CleanCell trims a cell and turns spreadsheet "not a number" markers into ""
func CleanCell(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "nan", "#n/a", "null", "none":
		return ""
	}
	return v
}

// ValidateHeaders returns the required headers that are missing
func ValidateHeaders(present func(string) bool, required []string) []string {
	var missing []string
	for _, h := range required {
		if !present(h) {
			missing = append(missing, h)
		}
	}
	return missing
}
