package trade

import (
	"bytes"
	"context"
	"io"

	"github.com/matreq/backend/internal/domain/integration"
	"github.com/matreq/backend/internal/domain/trade"
	"go.uber.org/zap"
)

// RowParser reads raw rows from an uploaded file
type RowParser interface {
	Parse(filename string, r io.Reader) ([]trade.RawRow, error)
}

// ArchiveInput describes one uploaded file to keep
type ArchiveInput struct {
	Environment string
	User        string
	Filename    string
	ContentType string
	Content     []byte
}

// UploadArchive keeps a copy of every uploaded file
type UploadArchive interface {
	Archive(ctx context.Context, input ArchiveInput) (string, error)
}

// UploadInput is one uploaded file
type UploadInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// UploadService parses, archives and enriches an uploaded file
type UploadService struct {
	parser     RowParser
	archive    UploadArchive
	enrichment *EnrichmentService
	logger     *zap.Logger
}

// NewUploadService creates a new UploadService. archive may be nil.
func NewUploadService(parser RowParser, archive UploadArchive, enrichment *EnrichmentService, logger *zap.Logger) *UploadService {
	return &UploadService{
		parser:     parser,
		archive:    archive,
		enrichment: enrichment,
		logger:     logger,
	}
}

// Process parses the file and enriches its rows. Archive failures are
// logged and do not fail the upload.
func (s *UploadService) Process(ctx context.Context, conn integration.Connection, input UploadInput) (*UploadResponse, error) {
	raw, err := s.parser.Parse(input.Filename, bytes.NewReader(input.Content))
	if err != nil {
		return nil, err
	}

	if s.archive != nil {
		key, err := s.archive.Archive(ctx, ArchiveInput{
			Environment: conn.Environment(),
			User:        conn.User(),
			Filename:    input.Filename,
			ContentType: input.ContentType,
			Content:     input.Content,
		})
		if err != nil {
			s.logger.Warn("Failed to archive upload",
				zap.String("filename", input.Filename),
				zap.Error(err),
			)
		} else if key != "" {
			s.logger.Debug("Upload archived", zap.String("key", key))
		}
	}

	rows := s.enrichment.Enrich(ctx, conn, raw)
	return &UploadResponse{Rows: ToRowDTOs(rows), Total: len(rows)}, nil
}
