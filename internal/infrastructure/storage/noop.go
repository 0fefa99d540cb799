package storage

import (
	"context"

	tradeapp "github.com/matreq/backend/internal/application/trade"
)

// NoopUploadArchive discards uploads. It is used when object storage is
// disabled.
type NoopUploadArchive struct{}

// Ensure NoopUploadArchive implements UploadArchive
var _ tradeapp.UploadArchive = NoopUploadArchive{}

// Archive returns an empty key without storing anything
func (NoopUploadArchive) Archive(ctx context.Context, input tradeapp.ArchiveInput) (string, error) {
	return "", nil
}
