package csvimport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matreq/backend/internal/domain/shared"
)

// Upload error codes
const (
	ErrCodeUploadInvalidFile     = "INVALID_FILE"
	ErrCodeUploadEmptyFile       = "EMPTY_FILE"
	ErrCodeUploadInvalidEncoding = "INVALID_ENCODING"
	ErrCodeUploadUnsupported     = "UNSUPPORTED_FILE_TYPE"
	ErrCodeUploadMissingColumns  = "MISSING_COLUMNS"
	ErrCodeUploadNoDataRows      = "NO_DATA_ROWS"
)

// Common parse errors
var (
	// ErrEmptyFile is returned when the file is empty
	ErrEmptyFile = errors.New("file is empty")

	// ErrInvalidEncoding is returned when a CSV file is neither UTF-8 nor BOM-marked UTF-16
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the file has no header row
	ErrMissingHeader = errors.New("file missing header row")

	// ErrNoDataRows is returned when the file has a header but no rows
	ErrNoDataRows = errors.New("file contains no data rows")

	// ErrUnsupportedFormat is returned for file types other than CSV and XLSX
	ErrUnsupportedFormat = errors.New("unsupported file type")
)

// MissingColumnsError lists required columns absent from the header
type MissingColumnsError struct {
	Columns []string
}

// Error implements the error interface
func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("Missing required columns: %s", strings.Join(e.Columns, ", "))
}

// ToDomainError converts a parse failure into a client-facing domain error
func ToDomainError(err error) error {
	var missing *MissingColumnsError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &missing):
		return shared.NewDomainError(ErrCodeUploadMissingColumns, missing.Error())
	case errors.Is(err, ErrEmptyFile), errors.Is(err, ErrMissingHeader):
		return shared.NewDomainError(ErrCodeUploadEmptyFile, "The uploaded file is empty")
	case errors.Is(err, ErrNoDataRows):
		return shared.NewDomainError(ErrCodeUploadNoDataRows, "The uploaded file contains no data rows")
	case errors.Is(err, ErrInvalidEncoding):
		return shared.NewDomainError(ErrCodeUploadInvalidEncoding, "CSV files must be UTF-8 or UTF-16 with a byte order mark")
	case errors.Is(err, ErrUnsupportedFormat):
		return shared.NewDomainError(ErrCodeUploadUnsupported, "Only .csv and .xlsx files are supported")
	default:
		return shared.NewDomainError(ErrCodeUploadInvalidFile, "Invalid file: "+err.Error())
	}
}
